package game

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/CodeAndHammer/wordwise/internal/constants"
)

var (
	ErrGameOver       = errors.New(constants.ErrorCodeGameOver)
	ErrDuplicateGuess = errors.New(constants.ErrorCodeDuplicateGuess)
	ErrNoMoreGuesses  = errors.New(constants.ErrorCodeNoMoreGuesses)
	ErrNotAccepted    = errors.New(constants.ErrorCodeWordNotAccepted)
)

// GameState is one round for one session. SessionWord is never serialized;
// TargetWord is filled in once the game ends.
type GameState struct {
	Guesses        []GuessResult `json:"guesses"`
	CurrentRow     int           `json:"currentRow"`
	GameOver       bool          `json:"gameOver"`
	Won            bool          `json:"won"`
	TargetWord     string        `json:"targetWord,omitempty"`
	SessionWord    string        `json:"-"`
	Hint           string        `json:"-"`
	WordSource     string        `json:"-"`
	GuessHistory   []string      `json:"guessHistory"`
	Keyboard       KeyboardState `json:"keyboard"`
	StartedAt      time.Time     `json:"startedAt"`
	LastAccessTime time.Time     `json:"lastAccessTime"`
}

func NewGame(target, hint string) *GameState {
	now := time.Now()
	return &GameState{
		Guesses:        []GuessResult{},
		SessionWord:    target,
		Hint:           hint,
		GuessHistory:   []string{},
		Keyboard:       make(KeyboardState),
		StartedAt:      now,
		LastAccessTime: now,
	}
}

// Submit evaluates guess, appends it to the history and advances the game.
// guess is expected to already be normalized.
func (g *GameState) Submit(guess string) (GuessResult, error) {
	if g.GameOver {
		return GuessResult{}, ErrGameOver
	}
	if g.CurrentRow >= constants.MaxGuesses {
		return GuessResult{}, ErrNoMoreGuesses
	}
	if slices.Contains(g.GuessHistory, guess) {
		return GuessResult{}, ErrDuplicateGuess
	}

	result, err := Evaluate(guess, g.SessionWord)
	if err != nil {
		return GuessResult{}, err
	}

	g.Guesses = append(g.Guesses, result)
	g.GuessHistory = append(g.GuessHistory, guess)
	g.Keyboard.Apply(result)
	g.LastAccessTime = time.Now()

	if result.Solved() {
		g.Won = true
		g.GameOver = true
	} else {
		g.CurrentRow++
		if g.CurrentRow >= constants.MaxGuesses {
			g.GameOver = true
		}
	}

	if g.GameOver {
		g.TargetWord = g.SessionWord
	}
	return result, nil
}

// Retry restarts the round on the same word.
func (g *GameState) Retry() *GameState {
	fresh := NewGame(g.SessionWord, g.Hint)
	fresh.WordSource = g.WordSource
	return fresh
}

func (g *GameState) LastGuess() (GuessResult, bool) {
	if len(g.Guesses) == 0 {
		return GuessResult{}, false
	}
	return g.Guesses[len(g.Guesses)-1], true
}

func (g *GameState) GuessesLeft() int {
	if g.Won {
		return 0
	}
	return constants.MaxGuesses - len(g.Guesses)
}

// Board returns all MaxGuesses rows, padding unsubmitted rows with empty tiles.
func (g *GameState) Board() [][]GuessTile {
	return lo.Times(constants.MaxGuesses, func(row int) []GuessTile {
		if row < len(g.Guesses) {
			return g.Guesses[row].Tiles
		}
		return lo.Times(constants.WordLength, func(_ int) GuessTile {
			return GuessTile{State: StateEmpty}
		})
	})
}

// Snapshot returns a copy that can be read without holding the session lock.
func (g *GameState) Snapshot() *GameState {
	cp := *g
	cp.Guesses = slices.Clone(g.Guesses)
	cp.GuessHistory = slices.Clone(g.GuessHistory)
	cp.Keyboard = maps.Clone(g.Keyboard)
	return &cp
}
