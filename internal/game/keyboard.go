package game

import (
	"slices"

	"github.com/samber/lo"
)

// KeyboardState maps a letter to the best state seen for it so far.
type KeyboardState map[string]TileState

// Apply folds one guess into the keyboard. correct always wins, present only
// yields to correct, and absent is recorded only for letters not seen before.
func (k KeyboardState) Apply(result GuessResult) {
	for _, tile := range result.Tiles {
		current, seen := k[tile.Letter]
		switch tile.State {
		case StateCorrect:
			k[tile.Letter] = StateCorrect
		case StatePresent:
			if current != StateCorrect {
				k[tile.Letter] = StatePresent
			}
		case StateAbsent:
			if !seen {
				k[tile.Letter] = StateAbsent
			}
		}
	}
}

// Letters returns the letters with a recorded state, sorted.
func (k KeyboardState) Letters() []string {
	letters := lo.Keys(k)
	slices.Sort(letters)
	return letters
}

func MergeKeyboardState(history []GuessResult) KeyboardState {
	state := make(KeyboardState)
	for _, result := range history {
		state.Apply(result)
	}
	return state
}
