// Package coach produces the LLM-backed parts of a game: the target word,
// hints, per-guess coaching and the game-over summary. Every operation falls
// back to local content when the provider is unavailable.
package coach

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/CodeAndHammer/wordwise/internal/game"
	"github.com/CodeAndHammer/wordwise/internal/llm"
	"github.com/CodeAndHammer/wordwise/internal/util"
	"github.com/CodeAndHammer/wordwise/internal/words"
)

const (
	SourceLLM     = "llm"
	SourceCatalog = "catalog"
)

const (
	MinHintLevel = 1
	MaxHintLevel = 3
)

// Recorder receives one event per provider interaction.
type Recorder interface {
	ObserveLLM(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLLM(string, string) {}

type Service struct {
	client  llm.Client
	catalog *words.Catalog
	hints   *cache.Cache
	rec     Recorder
}

type WordChoice struct {
	Word       string
	Hint       string
	Source     string
	NeedsReset bool
}

func NewService(client llm.Client, catalog *words.Catalog, hintTTL time.Duration, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		client:  client,
		catalog: catalog,
		hints:   cache.New(hintTTL, 2*hintTTL),
		rec:     rec,
	}
}

func (s *Service) complete(ctx context.Context, p llm.Prompt) (string, error) {
	p.System = systemPrompt
	out, err := s.client.Complete(ctx, p)
	if err != nil {
		s.rec.ObserveLLM(p.Kind, "error")
		util.LogWarnCtx(ctx, "LLM %s request failed: %v", p.Kind, err)
		return "", err
	}
	s.rec.ObserveLLM(p.Kind, "ok")
	return out, nil
}

// GenerateWord asks the provider for a fresh target word. Replies that are not
// a valid five letter word, or that repeat one of exclude, are discarded in
// favour of a catalog word.
func (s *Service) GenerateWord(ctx context.Context, exclude []string) WordChoice {
	out, err := s.complete(ctx, llm.Prompt{Kind: "word", User: wordPrompt(exclude), MaxTokens: 10, Temperature: 1.0})
	if err == nil {
		word := game.NormalizeGuess(strings.Trim(out, " .!\"'`*"))
		switch {
		case game.ValidateWord(word) != nil:
			util.LogWarnCtx(ctx, "LLM returned unusable word %q, using catalog", out)
		case slices.Contains(exclude, word):
			util.LogWarnCtx(ctx, "LLM repeated completed word %s, using catalog", word)
		default:
			if !s.catalog.Contains(word) {
				util.LogInfoCtx(ctx, "LLM word %s has no catalog hint, hints will come from the provider", word)
			}
			return WordChoice{Word: word, Hint: s.catalog.Hint(word), Source: SourceLLM}
		}
	}

	entry, needsReset := s.catalog.RandomExcluding(ctx, exclude)
	return WordChoice{Word: entry.Word, Hint: entry.Hint, Source: SourceCatalog, NeedsReset: needsReset}
}

func ClampHintLevel(level int) int {
	return min(max(level, MinHintLevel), MaxHintLevel)
}

// Hint returns a hint for word at the given level (1 vague to 3 strong).
// Provider hints are cached per word and level.
func (s *Service) Hint(ctx context.Context, word string, level int) string {
	level = ClampHintLevel(level)
	key := fmt.Sprintf("%s:%d", word, level)
	if cached, ok := s.hints.Get(key); ok {
		s.rec.ObserveLLM("hint", "cached")
		return cached.(string)
	}

	out, err := s.complete(ctx, llm.Prompt{Kind: "hint", User: hintPrompt(word, level), MaxTokens: 80, Temperature: 0.7})
	if err != nil {
		return s.fallbackHint(word, level)
	}
	s.hints.Set(key, out, cache.DefaultExpiration)
	return out
}

func (s *Service) fallbackHint(word string, level int) string {
	hint := s.catalog.Hint(word)
	if level >= MaxHintLevel || hint == "" {
		reveal := fmt.Sprintf("It starts with %s and ends with %s.", word[:1], word[len(word)-1:])
		if hint == "" {
			return reveal
		}
		return hint + " " + reveal
	}
	return hint
}

// Coach comments on the most recent guess.
func (s *Service) Coach(ctx context.Context, state *game.GameState) string {
	out, err := s.complete(ctx, llm.Prompt{Kind: "coach", User: coachPrompt(state), MaxTokens: 120, Temperature: 0.8})
	if err == nil {
		return out
	}
	return fallbackCoach(state)
}

func fallbackCoach(state *game.GameState) string {
	last, ok := state.LastGuess()
	if !ok {
		return "Start with a word that uses several common vowels and consonants."
	}
	var correct, present int
	for _, t := range last.Tiles {
		switch t.State {
		case game.StateCorrect:
			correct++
		case game.StatePresent:
			present++
		}
	}
	switch {
	case correct == len(last.Tiles):
		return "Perfect, you found it!"
	case correct+present == 0:
		return fmt.Sprintf("None of the letters in %s are in the word. Try a guess with fresh letters.", last.Word)
	default:
		return fmt.Sprintf("%s placed %d letter%s and found %d more in the wrong spot. Keep the green letters where they are and move the yellow ones.",
			last.Word, correct, util.Plural(correct), present)
	}
}

// Feedback summarises a finished game.
func (s *Service) Feedback(ctx context.Context, state *game.GameState) string {
	out, err := s.complete(ctx, llm.Prompt{Kind: "feedback", User: feedbackPrompt(state), MaxTokens: 200, Temperature: 0.8})
	if err == nil {
		return out
	}
	if state.Won {
		n := len(state.Guesses)
		return fmt.Sprintf("You solved %s in %d guess%s. Nicely done.", state.SessionWord, n, map[bool]string{true: "", false: "es"}[n == 1])
	}
	return fmt.Sprintf("The word was %s. Try opening with a word that covers the most common letters.", state.SessionWord)
}
