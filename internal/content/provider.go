package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"psykos/internal/game"
)

const (
	questionSystem = "You make short, fun party game prompts. Return ONLY the prompt, no labels."
	acronymSystem  = `Return ONLY JSON like {"acronym":"NASA","expansion":"National Aeronautics and Space Administration"}`
	factSystem     = "Return ONLY one short true sentence about the provided word."
	gradeSystem    = "You grade answers from 1-10 for closeness to the correct answer. Return ONLY comma-separated numbers."
	thinkFastLimit = 5
)

var seedWords = []string{"pig", "ocean", "coffee", "black", "honey", "ant", "moon", "snake", "ice", "rain", "gold", "mango", "whale"}

var (
	labelPrefix = regexp.MustCompile(`^[^:]+:\s*`)
	parenAside  = regexp.MustCompile(`\([^)]*\)`)
	squareAside = regexp.MustCompile(`\[[^\]]*\]`)
)

// PromptSource hands out curated questions when the LLM cannot.
type PromptSource interface {
	RandomPrompt(ctx context.Context, category string) (string, error)
}

// Provider generates prompts and grades answers through an LLM.
type Provider struct {
	llm     Completer
	library PromptSource
	images  []string
	log     zerolog.Logger
}

// NewProvider wires llm and an optional library. Either may be nil.
func NewProvider(llm Completer, library PromptSource, logger zerolog.Logger) *Provider {
	return &Provider{llm: llm, library: library, images: CaptionImages(), log: logger}
}

var _ game.ContentProvider = (*Provider)(nil)

func (p *Provider) GeneratePrompt(ctx context.Context, category game.Category, names []string) (game.Prompt, error) {
	meta := game.RoundMeta{Type: string(category)}
	switch category {
	case game.CategoryAcronyms:
		return p.acronym(ctx, meta)
	case game.CategoryIsThatAFact:
		return p.fact(ctx, meta)
	case game.CategoryCaptionThis:
		if len(p.images) == 0 {
			return game.Prompt{}, fmt.Errorf("%w: no caption images", game.ErrContentUnavailable)
		}
		meta.ImageURL = p.images[rand.IntN(len(p.images))]
		return game.Prompt{Text: "Write a caption", Meta: meta}, nil
	case game.CategoryRidleysThink:
		meta.TimeLimit = thinkFastLimit
	}
	text, err := p.question(ctx, category, names)
	if err != nil {
		return game.Prompt{}, err
	}
	return game.Prompt{Text: text, Meta: meta}, nil
}

func (p *Provider) question(ctx context.Context, category game.Category, names []string) (string, error) {
	reply, err := p.complete(ctx, []Message{
		{Role: "system", Content: questionSystem},
		{Role: "user", Content: questionInstruction(category, names)},
	}, 0.7, 80)
	if err == nil {
		if text := CleanPrompt(reply); text != "" {
			return text, nil
		}
		err = errors.New("empty prompt after cleanup")
	}

	if p.library != nil {
		text, libErr := p.library.RandomPrompt(ctx, string(category))
		if libErr == nil && strings.TrimSpace(text) != "" {
			p.log.Debug().Err(err).Str("category", string(category)).Msg("using prompt library")
			return strings.TrimSpace(text), nil
		}
	}
	return "", fmt.Errorf("%w: %w", game.ErrContentUnavailable, err)
}

func questionInstruction(category game.Category, names []string) string {
	players := strings.Join(names, ", ")
	switch category {
	case game.CategoryIceBreaker:
		return "Generate a short, fun get-to-know-you question. Return ONLY the question."
	case game.CategorySearchHistory:
		return `Generate a funny search query beginning, like "why do cats..." Return ONLY the fragment.`
	case game.CategoryTruthComesOut:
		return fmt.Sprintf("Create a personal question about a random player: %s. Return ONLY the question.", players)
	case game.CategoryNakedTruth:
		return fmt.Sprintf("Create an 18+ personal question about a random player: %s. Return ONLY the question.", players)
	case game.CategoryWhoAmongUs:
		return `Create a "Who among us is most likely to..." question. Return ONLY the question.`
	case game.CategoryRidleysThink:
		return `Create a simple, answerable prompt that can be answered in under 5 seconds. Examples: "Name a fruit", "Say a color". Return ONLY the prompt.`
	default:
		return "Generate a short prompt for a party game."
	}
}

func (p *Provider) acronym(ctx context.Context, meta game.RoundMeta) (game.Prompt, error) {
	reply, err := p.complete(ctx, []Message{
		{Role: "system", Content: acronymSystem},
		{Role: "user", Content: "Provide a well-known acronym and its correct expansion."},
	}, 0.6, 80)
	if err != nil {
		return game.Prompt{}, fmt.Errorf("%w: %w", game.ErrContentUnavailable, err)
	}
	acronym, expansion, ok := ParseAcronym(reply)
	if !ok {
		return game.Prompt{}, fmt.Errorf("%w: malformed acronym reply %q", game.ErrContentUnavailable, reply)
	}
	meta.Acronym = acronym
	meta.Expansion = expansion
	return game.Prompt{Text: acronym, Meta: meta}, nil
}

// ParseAcronym reads a {"acronym","expansion"} JSON reply, falling back to
// "ACRONYM - Expansion".
func ParseAcronym(reply string) (string, string, bool) {
	var pair struct {
		Acronym   string `json:"acronym"`
		Expansion string `json:"expansion"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &pair); err == nil {
		acronym := strings.ToUpper(strings.TrimSpace(pair.Acronym))
		expansion := strings.TrimSpace(pair.Expansion)
		if acronym != "" && expansion != "" {
			return acronym, expansion, true
		}
	}
	head, tail, found := strings.Cut(reply, "-")
	if !found {
		return "", "", false
	}
	acronym := strings.ToUpper(strings.TrimSpace(head))
	expansion := strings.TrimSpace(tail)
	return acronym, expansion, acronym != "" && expansion != ""
}

func (p *Provider) fact(ctx context.Context, meta game.RoundMeta) (game.Prompt, error) {
	word := seedWords[rand.IntN(len(seedWords))]
	reply, err := p.complete(ctx, []Message{
		{Role: "system", Content: factSystem},
		{Role: "user", Content: fmt.Sprintf("Give a short true fact about %q.", word)},
	}, 0.5, 60)
	if err != nil {
		return game.Prompt{}, fmt.Errorf("%w: %w", game.ErrContentUnavailable, err)
	}
	fact := CleanPrompt(reply)
	if fact == "" {
		return game.Prompt{}, fmt.Errorf("%w: empty fact for %q", game.ErrContentUnavailable, word)
	}
	meta.Word = word
	meta.TrueFact = fact
	return game.Prompt{Text: word, Meta: meta}, nil
}

func (p *Provider) GradeCloseness(ctx context.Context, question string, answers []string, correct string) ([]int, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	lines := make([]string, len(answers))
	for i, answer := range answers {
		lines[i] = fmt.Sprintf("%d. %q", i+1, answer)
	}
	prompt := fmt.Sprintf("Question: %q\nCorrect: %q\nAnswers:\n%s", question, correct, strings.Join(lines, "\n"))

	reply, err := p.complete(ctx, []Message{
		{Role: "system", Content: gradeSystem},
		{Role: "user", Content: prompt},
	}, 0.3, 60)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", game.ErrContentUnavailable, err)
	}
	return ParseGrades(reply), nil
}

// ParseGrades reads comma-separated grades. Anything that is not a number
// counts as game.DefaultGrade; numbers are clamped to the grade range.
func ParseGrades(reply string) []int {
	parts := strings.Split(reply, ",")
	grades := make([]int, 0, len(parts))
	for _, part := range parts {
		grade, err := strconv.Atoi(leadingDigits(strings.TrimSpace(part)))
		if err != nil {
			grades = append(grades, game.DefaultGrade)
			continue
		}
		grades = append(grades, min(max(grade, game.MinGrade), game.MaxGrade))
	}
	return grades
}

// leadingDigits keeps an optional sign and the digits after it, so "7." and
// "8/10" parse like their leading integer.
func leadingDigits(s string) string {
	end := 0
	for i, r := range s {
		if (r == '-' || r == '+') && i == 0 {
			end = i + 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	return s[:end]
}

// CleanPrompt strips a leading "Label:" and bracketed asides from LLM text.
func CleanPrompt(text string) string {
	text = labelPrefix.ReplaceAllString(strings.TrimSpace(text), "")
	text = parenAside.ReplaceAllString(text, "")
	text = squareAside.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (p *Provider) complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if p.llm == nil {
		return "", ErrNotConfigured
	}
	return p.llm.Complete(ctx, messages, temperature, maxTokens)
}
