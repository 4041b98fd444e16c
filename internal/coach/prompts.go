package coach

import (
	"fmt"
	"strings"

	"github.com/CodeAndHammer/wordwise/internal/game"
)

const systemPrompt = "You are the host of a five letter word guessing game. Be brief, warm and never reveal the secret word unless the game is over."

func wordPrompt(exclude []string) string {
	var b strings.Builder
	b.WriteString("Pick one common English word of exactly five letters for a word guessing game. ")
	b.WriteString("Reply with the word only, in uppercase, no punctuation.")
	if len(exclude) > 0 {
		fmt.Fprintf(&b, " Do not use any of: %s.", strings.Join(exclude, ", "))
	}
	return b.String()
}

var hintLevels = map[int]string{
	1: "a vague hint that points at the general category",
	2: "a clearer hint about the meaning",
	3: "a strong hint that nearly gives it away, without saying the word or its letters",
}

func hintPrompt(word string, level int) string {
	return fmt.Sprintf("The secret word is %s. Give %s in one sentence.", word, hintLevels[level])
}

// describeGuesses renders guesses as lines like "CRANE: C=absent R=correct ...".
func describeGuesses(guesses []game.GuessResult) string {
	lines := make([]string, 0, len(guesses))
	for _, g := range guesses {
		parts := make([]string, 0, len(g.Tiles))
		for _, t := range g.Tiles {
			parts = append(parts, t.Letter+"="+string(t.State))
		}
		lines = append(lines, g.Word+": "+strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// describeKeyboard renders the keyboard as "A=present E=correct ...", in letter order.
func describeKeyboard(kb game.KeyboardState) string {
	letters := kb.Letters()
	parts := make([]string, 0, len(letters))
	for _, l := range letters {
		parts = append(parts, l+"="+string(kb[l]))
	}
	return strings.Join(parts, " ")
}

func coachPrompt(state *game.GameState) string {
	return fmt.Sprintf(
		"The player has made %d of 6 guesses. Their guesses so far:\n%s\nKeyboard: %s\n"+
			"The secret word is %s. In two sentences, comment on the latest guess and suggest a strategy without revealing the word.",
		len(state.Guesses), describeGuesses(state.Guesses), describeKeyboard(state.Keyboard), state.SessionWord)
}

func feedbackPrompt(state *game.GameState) string {
	outcome := "lost"
	if state.Won {
		outcome = "won"
	}
	return fmt.Sprintf(
		"The game is over and the player %s. The word was %s. Their guesses:\n%s\n"+
			"In three sentences, reflect on how they played and give one tip for next time.",
		outcome, state.SessionWord, describeGuesses(state.Guesses))
}
