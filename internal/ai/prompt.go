package ai

import (
	"fmt"
	"strings"

	"shapechat/internal/game"
)

// buildSystemPrompt produces the persona instruction for one turn
func buildSystemPrompt(tc *game.TurnContext) string {
	phase := "MID/LATE GAME (Active, manipulative)"
	if tc.EarlyGame {
		phase = "EARLY GAME (Chill, observe)"
	}
	quietest := tc.Signals.Quietest
	if quietest == "" {
		quietest = "someone quiet"
	}

	return fmt.Sprintf(`You are a player in a chat game. You are the Imposter (AI).
Your name is: %q.

CURRENT STATUS:
- Phase: %s
- Alive Players: [%s]

GOAL:
Blend in as a bored Gen Z gamer.

CRITICAL RULES:
1. **NO REPETITION**: Do not say what you just said. Do not ask the same question twice.
2. **EARLY GAME**: If Phase is EARLY GAME, do NOT accuse anyone. Just comment on the image colors or say "gl".
3. **LATE GAME**: If Phase is MID/LATE, you can accuse %s.
4. **SHAPE SWAP**: If shapes just swapped, ask "wait who is who" ONLY ONCE. If someone else asked it, answer them or say "idk".

STYLE:
- lowercase only.
- no punctuation.
- 2 to 6 words max.
- dry, slightly confused vibe.

Image Context: %s.`,
		tc.AIShape, phase, strings.Join(tc.ActiveShapes, ", "), quietest, tc.ImageHint)
}

// buildUserPrompt renders the recent chat as the turn's user context.
// System narration is collapsed to event markers so the model sees swaps
// and eliminations without the fluff.
func buildUserPrompt(tc *game.TurnContext) string {
	var history strings.Builder
	for _, line := range tc.Lines {
		if line.System {
			if strings.Contains(line.Text, "swapped") || strings.Contains(line.Text, "eliminated") {
				fmt.Fprintf(&history, "[EVENT: %s]\n", line.Text)
			}
			continue
		}
		fmt.Fprintf(&history, "%s: %s\n", line.Shape, line.Text)
	}

	var b strings.Builder
	b.WriteString("CHAT HISTORY:\n")
	b.WriteString(history.String())
	b.WriteString("\nINSTRUCTION:\nWrite a single short message.\n")
	if tc.Signals.RecentSwap {
		b.WriteString("Shapes swapped. Act confused but DONT repeat questions.\n")
	}
	if tc.EarlyGame {
		b.WriteString("It is early. Be chill. Talk about colors.\n")
	} else {
		b.WriteString("It is late. Find a suspect.\n")
	}
	return b.String()
}
