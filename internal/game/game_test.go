package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeAndHammer/wordwise/internal/constants"
)

func states(r GuessResult) []TileState {
	out := make([]TileState, len(r.Tiles))
	for i, t := range r.Tiles {
		out[i] = t.State
	}
	return out
}

func mustEvaluate(t *testing.T, guess, target string) GuessResult {
	t.Helper()
	res, err := Evaluate(guess, target)
	require.NoError(t, err)
	return res
}

func TestEvaluate(t *testing.T) {
	C, P, A := StateCorrect, StatePresent, StateAbsent
	tests := []struct {
		name   string
		guess  string
		target string
		want   []TileState
	}{
		{"exact match", "APPLE", "APPLE", []TileState{C, C, C, C, C}},
		{"no shared letters", "ZZZZZ", "APPLE", []TileState{A, A, A, A, A}},
		{"all present", "PLEAP", "APPLE", []TileState{P, P, P, P, P}},
		{"adieu against audio", "ADIEU", "AUDIO", []TileState{C, P, P, A, P}},
		{"llama against alarm", "LLAMA", "ALARM", []TileState{A, C, C, P, P}},
		{"second copy of a letter stays absent", "SPEED", "ABIDE", []TileState{A, A, P, A, P}},
		{"exact match claims before present", "EERIE", "THREE", []TileState{P, A, C, A, C}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustEvaluate(t, tt.guess, tt.target)
			assert.Equal(t, tt.guess, res.Word)
			assert.Equal(t, tt.want, states(res))
			for i, tile := range res.Tiles {
				assert.Equal(t, string(tt.guess[i]), tile.Letter)
			}
		})
	}
}

func TestEvaluate_DuplicateLettersNeverOverCredit(t *testing.T) {
	res := mustEvaluate(t, "LLAMA", "ALARM")

	marked := map[string]int{}
	for _, tile := range res.Tiles {
		if tile.State == StateCorrect || tile.State == StatePresent {
			marked[tile.Letter]++
		}
	}
	for letter, n := range marked {
		assert.LessOrEqual(t, n, strings.Count("ALARM", letter), "letter %s over-credited", letter)
	}
	assert.Equal(t, 1, marked["L"])
	assert.Equal(t, 2, marked["A"])
}

func TestEvaluate_InvalidInput(t *testing.T) {
	cases := []struct{ guess, target string }{
		{"ABCD", "APPLE"},
		{"ABCDEF", "APPLE"},
		{"apple", "APPLE"},
		{"AB1DE", "APPLE"},
		{"APPLE", "APP"},
		{"", ""},
	}
	for _, c := range cases {
		_, err := Evaluate(c.guess, c.target)
		assert.ErrorIs(t, err, ErrInvalidInput, "guess=%q target=%q", c.guess, c.target)
	}
}

func TestNormalizeGuess(t *testing.T) {
	assert.Equal(t, "CRANE", NormalizeGuess("  crane \n"))
}

func TestMergeKeyboardState(t *testing.T) {
	history := []GuessResult{
		mustEvaluate(t, "TRAIN", "CRANE"),
		mustEvaluate(t, "CRANE", "CRANE"),
	}
	kb := MergeKeyboardState(history)

	assert.Equal(t, StateAbsent, kb["T"])
	assert.Equal(t, StateAbsent, kb["I"])
	assert.Equal(t, StateCorrect, kb["R"])
	assert.Equal(t, StateCorrect, kb["A"])
	assert.Equal(t, StateCorrect, kb["N"])
	assert.Equal(t, StateCorrect, kb["C"])
	assert.Equal(t, StateCorrect, kb["E"])
}

func TestMergeKeyboardState_CorrectNeverDowngrades(t *testing.T) {
	history := []GuessResult{
		mustEvaluate(t, "ABBEY", "ALARM"), // A correct
		mustEvaluate(t, "LLAMA", "ALARM"), // A present at 4
		mustEvaluate(t, "BASIC", "ALARM"), // A present at 1
		mustEvaluate(t, "QUOTA", "ALARM"), // A present at 4
	}
	kb := MergeKeyboardState(history)
	assert.Equal(t, StateCorrect, kb["A"])

	for i := range history {
		partial := MergeKeyboardState(history[:i+1])
		assert.Equal(t, StateCorrect, partial["A"], "after %d guesses", i+1)
	}
}

func TestMergeKeyboardState_PresentBeatsLaterAbsent(t *testing.T) {
	// The second E in SPEED is absent but the first is present.
	kb := MergeKeyboardState([]GuessResult{mustEvaluate(t, "SPEED", "ABIDE")})
	assert.Equal(t, StatePresent, kb["E"])

	kb = MergeKeyboardState([]GuessResult{
		{Word: "XXXXX", Tiles: []GuessTile{{"E", StateAbsent}}},
		{Word: "XXXXX", Tiles: []GuessTile{{"E", StatePresent}}},
		{Word: "XXXXX", Tiles: []GuessTile{{"E", StateAbsent}}},
	})
	assert.Equal(t, StatePresent, kb["E"])
	assert.Equal(t, []string{"E"}, kb.Letters())
}

func TestGameState_Win(t *testing.T) {
	g := NewGame("APPLE", "fruit")
	res, err := g.Submit("APPLE")
	require.NoError(t, err)
	assert.True(t, res.Solved())
	assert.True(t, g.Won)
	assert.True(t, g.GameOver)
	assert.Equal(t, "APPLE", g.TargetWord)
	assert.Equal(t, 0, g.GuessesLeft())

	_, err = g.Submit("TABLE")
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestGameState_Lose(t *testing.T) {
	g := NewGame("APPLE", "")
	words := []string{"TABLE", "CRANE", "SLATE", "PIANO", "HOUSE", "MOUSE"}
	for i, w := range words {
		_, err := g.Submit(w)
		require.NoError(t, err)
		if i < len(words)-1 {
			assert.False(t, g.GameOver)
			assert.Empty(t, g.TargetWord, "target must stay hidden during play")
		}
	}
	assert.True(t, g.GameOver)
	assert.False(t, g.Won)
	assert.Equal(t, "APPLE", g.TargetWord)
	assert.Equal(t, constants.MaxGuesses, g.CurrentRow)
	assert.Len(t, g.Guesses, constants.MaxGuesses)
}

func TestGameState_DuplicateAndInvalid(t *testing.T) {
	g := NewGame("APPLE", "")
	_, err := g.Submit("TABLE")
	require.NoError(t, err)

	_, err = g.Submit("TABLE")
	assert.ErrorIs(t, err, ErrDuplicateGuess)

	_, err = g.Submit("TAB")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, g.GuessHistory, 1)
}

func TestGameState_KeyboardTracksHistory(t *testing.T) {
	g := NewGame("ALARM", "")
	_, err := g.Submit("ABBEY")
	require.NoError(t, err)
	_, err = g.Submit("LLAMA")
	require.NoError(t, err)

	assert.Equal(t, MergeKeyboardState(g.Guesses), g.Keyboard)
	last, ok := g.LastGuess()
	require.True(t, ok)
	assert.Equal(t, "LLAMA", last.Word)
}

func TestGameState_BoardAndRetry(t *testing.T) {
	g := NewGame("APPLE", "fruit")
	_, err := g.Submit("TABLE")
	require.NoError(t, err)

	board := g.Board()
	require.Len(t, board, constants.MaxGuesses)
	assert.Equal(t, g.Guesses[0].Tiles, board[0])
	for _, tile := range board[1] {
		assert.Equal(t, StateEmpty, tile.State)
	}

	g.WordSource = "llm"
	fresh := g.Retry()
	assert.Equal(t, "APPLE", fresh.SessionWord)
	assert.Equal(t, "llm", fresh.WordSource)
	assert.Equal(t, "fruit", fresh.Hint)
	assert.Empty(t, fresh.Guesses)
}

func TestGameState_Snapshot(t *testing.T) {
	g := NewGame("APPLE", "")
	_, err := g.Submit("TABLE")
	require.NoError(t, err)

	snap := g.Snapshot()
	_, err = g.Submit("CRANE")
	require.NoError(t, err)

	assert.Len(t, snap.Guesses, 1)
	assert.Len(t, snap.GuessHistory, 1)
	assert.NotContains(t, snap.Keyboard, "C")
	assert.Equal(t, "APPLE", snap.SessionWord)
}
