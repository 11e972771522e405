package game

import "strings"

type Category string

const (
	CategoryAcronyms       Category = "acronyms"
	CategoryIsThatAFact    Category = "is-that-a-fact"
	CategoryTruthComesOut  Category = "truth-comes-out"
	CategoryNakedTruth     Category = "naked-truth"
	CategoryIceBreaker     Category = "ice-breaker"
	CategorySearchHistory  Category = "search-history"
	CategoryWhoAmongUs     Category = "who-among-us"
	CategoryRidleysThink   Category = "ridleys-think-fast"
	CategoryCaptionThis    Category = "caption-this-image"
	defaultThinkFastLimit           = 5
	fallbackQuestionPrompt          = "Say something funny."
)

type mechanic int

const (
	// Answers plus the real one are shuffled and voted on.
	mechanicBluff mechanic = iota
	// One random player's answer is the truth; an LLM grades the rest.
	mechanicCloseness
	// Players vote for their favorite answer.
	mechanicVote
)

// Rules carries everything that differs between categories. A session picks
// its Rules once and never branches on the category name again.
type Rules struct {
	Category Category
	mechanic mechanic
	correct  func(RoundMeta) string
}

var categoryOrder = []Category{
	CategoryAcronyms,
	CategoryIsThatAFact,
	CategoryTruthComesOut,
	CategoryNakedTruth,
	CategoryIceBreaker,
	CategorySearchHistory,
	CategoryWhoAmongUs,
	CategoryRidleysThink,
	CategoryCaptionThis,
}

var categoryRules = map[Category]Rules{
	CategoryAcronyms: {
		Category: CategoryAcronyms,
		mechanic: mechanicBluff,
		correct:  func(m RoundMeta) string { return m.Expansion },
	},
	CategoryIsThatAFact: {
		Category: CategoryIsThatAFact,
		mechanic: mechanicBluff,
		correct:  func(m RoundMeta) string { return m.TrueFact },
	},
	CategoryTruthComesOut: {Category: CategoryTruthComesOut, mechanic: mechanicCloseness},
	CategoryNakedTruth:    {Category: CategoryNakedTruth, mechanic: mechanicCloseness},
	CategoryIceBreaker:    {Category: CategoryIceBreaker, mechanic: mechanicVote},
	CategorySearchHistory: {Category: CategorySearchHistory, mechanic: mechanicVote},
	CategoryWhoAmongUs:    {Category: CategoryWhoAmongUs, mechanic: mechanicVote},
	CategoryRidleysThink:  {Category: CategoryRidleysThink, mechanic: mechanicVote},
	CategoryCaptionThis:   {Category: CategoryCaptionThis, mechanic: mechanicVote},
}

// Categories lists every playable category in menu order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

func ParseCategory(raw string) (Category, bool) {
	category := Category(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := categoryRules[category]
	return category, ok
}

func RulesFor(category Category) (Rules, bool) {
	rules, ok := categoryRules[category]
	return rules, ok
}

// HasVoting reports whether answers are followed by a voting phase.
func (r Rules) HasVoting() bool {
	return r.mechanic != mechanicCloseness
}

// GradesCloseness reports whether rounds are scored by LLM grading.
func (r Rules) GradesCloseness() bool {
	return r.mechanic == mechanicCloseness
}

// AllowsWhoGuess reports whether the host may open a who-wrote-what round.
func (r Rules) AllowsWhoGuess() bool {
	return r.mechanic == mechanicVote
}

// CorrectAnswer returns the real answer hidden among the bluffs.
func (r Rules) CorrectAnswer(meta RoundMeta) (string, bool) {
	if r.correct == nil {
		return "", false
	}
	answer := strings.TrimSpace(r.correct(meta))
	return answer, answer != ""
}

// Complete reports whether a generated prompt has everything the category
// needs to be played.
func (r Rules) Complete(prompt Prompt) bool {
	if strings.TrimSpace(prompt.Text) == "" {
		return false
	}
	if r.mechanic == mechanicBluff {
		_, ok := r.CorrectAnswer(prompt.Meta)
		return ok
	}
	return true
}

// ScoreBallots scores the voting phase of a round.
func (r Rules) ScoreBallots(ballots []Vote) Outcome {
	if r.mechanic == mechanicBluff {
		return ScoreBluff(ballots)
	}
	return ScoreFavorites(ballots)
}

// FallbackPrompt is used whenever the content provider cannot produce a
// usable prompt.
func FallbackPrompt(category Category) Prompt {
	meta := RoundMeta{Type: string(category)}
	switch category {
	case CategoryAcronyms:
		meta.Acronym = "NASA"
		meta.Expansion = "National Aeronautics and Space Administration"
		return Prompt{Text: meta.Acronym, Meta: meta}
	case CategoryIsThatAFact:
		meta.Word = "pig"
		meta.TrueFact = "Pigs are highly intelligent animals."
		return Prompt{Text: meta.Word, Meta: meta}
	case CategoryRidleysThink:
		meta.TimeLimit = defaultThinkFastLimit
	case CategoryCaptionThis:
		return Prompt{Text: "Write a caption", Meta: meta}
	}
	return Prompt{Text: fallbackQuestionPrompt, Meta: meta}
}
