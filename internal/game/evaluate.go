// Package game scores guesses against a target word and tracks a single
// player's progress through a round.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CodeAndHammer/wordwise/internal/constants"
)

type TileState string

const (
	StateCorrect TileState = "correct"
	StatePresent TileState = "present"
	StateAbsent  TileState = "absent"
	// StateEmpty marks an unsubmitted tile. Evaluate never produces it.
	StateEmpty TileState = "empty"
)

var ErrInvalidInput = errors.New("invalid input")

type GuessTile struct {
	Letter string    `json:"letter"`
	State  TileState `json:"state"`
}

type GuessResult struct {
	Word  string      `json:"word"`
	Tiles []GuessTile `json:"tiles"`
}

// Solved reports whether every tile is correct.
func (r GuessResult) Solved() bool {
	if len(r.Tiles) == 0 {
		return false
	}
	for _, t := range r.Tiles {
		if t.State != StateCorrect {
			return false
		}
	}
	return true
}

func NormalizeGuess(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// ValidateWord checks that word is exactly WordLength uppercase ASCII letters.
func ValidateWord(word string) error {
	if len(word) != constants.WordLength {
		return fmt.Errorf("%w: %q must be %d letters", ErrInvalidInput, word, constants.WordLength)
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return fmt.Errorf("%w: %q must contain only A-Z", ErrInvalidInput, word)
		}
	}
	return nil
}

// Evaluate scores guess against target. Exact matches are claimed first, then
// the remaining guess letters are matched left to right against the target
// letters that are still unclaimed, so a repeated letter is only marked
// present as many times as it is left over in the target.
func Evaluate(guess, target string) (GuessResult, error) {
	if err := ValidateWord(guess); err != nil {
		return GuessResult{}, fmt.Errorf("guess: %w", err)
	}
	if err := ValidateWord(target); err != nil {
		return GuessResult{}, fmt.Errorf("target: %w", err)
	}

	tiles := make([]GuessTile, constants.WordLength)
	var remaining [26]int
	pending := make([]int, 0, constants.WordLength)

	for i := 0; i < constants.WordLength; i++ {
		tiles[i].Letter = string(guess[i])
		if guess[i] == target[i] {
			tiles[i].State = StateCorrect
			continue
		}
		tiles[i].State = StateAbsent
		pending = append(pending, i)
		remaining[target[i]-'A']++
	}

	for _, i := range pending {
		idx := guess[i] - 'A'
		if remaining[idx] > 0 {
			tiles[i].State = StatePresent
			remaining[idx]--
		}
	}

	return GuessResult{Word: guess, Tiles: tiles}, nil
}
