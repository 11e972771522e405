package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	category, ok := ParseCategory("  Acronyms ")
	assert.True(t, ok)
	assert.Equal(t, CategoryAcronyms, category)

	_, ok = ParseCategory("charades")
	assert.False(t, ok)
}

func TestEveryCategoryHasRules(t *testing.T) {
	require.Len(t, Categories(), len(categoryRules))
	for _, category := range Categories() {
		rules, ok := RulesFor(category)
		require.True(t, ok, category)
		assert.True(t, rules.Complete(FallbackPrompt(category)), "fallback for %s is incomplete", category)
	}
}

func TestCategoryMechanics(t *testing.T) {
	acronyms, _ := RulesFor(CategoryAcronyms)
	assert.True(t, acronyms.HasVoting())
	assert.False(t, acronyms.AllowsWhoGuess())
	answer, ok := acronyms.CorrectAnswer(RoundMeta{Expansion: " Always Be Closing "})
	assert.True(t, ok)
	assert.Equal(t, "Always Be Closing", answer)

	fact, _ := RulesFor(CategoryIsThatAFact)
	answer, ok = fact.CorrectAnswer(RoundMeta{TrueFact: "Cats purr."})
	assert.True(t, ok)
	assert.Equal(t, "Cats purr.", answer)

	naked, _ := RulesFor(CategoryNakedTruth)
	assert.False(t, naked.HasVoting())
	assert.True(t, naked.GradesCloseness())
	_, ok = naked.CorrectAnswer(RoundMeta{Expansion: "x"})
	assert.False(t, ok)

	caption, _ := RulesFor(CategoryCaptionThis)
	assert.True(t, caption.AllowsWhoGuess())
	assert.Equal(t, 5, FallbackPrompt(CategoryRidleysThink).Meta.TimeLimit)
}
