package ai

import (
	"errors"
	"strings"

	"shapechat/internal/config"
	"shapechat/internal/game"
)

// Filter rejection reasons. All of them mean "the AI does not speak this
// turn"; they exist separately only for diagnostics.
var (
	ErrEmptyOutput   = errors.New("empty after normalization")
	ErrTooLong       = errors.New("over length cap")
	ErrDisclosure    = errors.New("possible self-outing")
	ErrRepetition    = errors.New("near-duplicate of a recent message")
	ErrHallucination = errors.New("references an inactive label")
)

// disclosureMaxLen is the length under which a message containing the
// disclosure token is assumed to be a self-out ("i am ai" glitches)
const disclosureMaxLen = 10

// minContainLen is the shortest string considered for the substring check.
// Two-letter filler like "gl" would otherwise poison every later message
// that happens to contain those characters ("voting triangle").
const minContainLen = 4

// Normalize strips quotes and terminal punctuation, lowercases and trims
// raw model output
func Normalize(raw string) string {
	text := strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(raw)
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.NewReplacer(".", "", "!", "", "?", "", ",", "").Replace(text)
	return strings.TrimSpace(text)
}

// FilterMessage normalizes raw output and applies the safety and quality
// gates. Only text that passes every gate may become a chat message.
func FilterMessage(raw string, tc *game.TurnContext, policy *config.Policy) (string, error) {
	text := Normalize(raw)

	if text == "" {
		return "", ErrEmptyOutput
	}
	if len(text) > policy.MaxMessageLen {
		return "", ErrTooLong
	}
	if strings.Contains(text, "ai") && len(text) < disclosureMaxLen {
		return "", ErrDisclosure
	}
	if isRepetitive(text, tc.MyRecent, policy.PrefixGuardLen) {
		return "", ErrRepetition
	}
	if hallucinatesLabel(text, policy.Shapes, tc.ActiveShapes, tc.AIShape) {
		return "", ErrHallucination
	}
	return text, nil
}

// isRepetitive catches loops: the new text being contained in, containing,
// or sharing its leading characters with any recent prior message. This
// stops "bruh whos octagon" -> "bruh whos octagon now".
func isRepetitive(text string, recent []string, prefixLen int) bool {
	for _, past := range recent {
		past = strings.ToLower(past)
		if past == "" {
			continue
		}
		if text == past {
			return true
		}
		shorter := len(past)
		if len(text) < shorter {
			shorter = len(text)
		}
		if shorter >= minContainLen &&
			(strings.Contains(text, past) || strings.Contains(past, text)) {
			return true
		}
		if prefix(text, prefixLen) == prefix(past, prefixLen) {
			return true
		}
	}
	return false
}

// hallucinatesLabel reports whether text names a known label that is not
// currently in play and is not the AI's own. Guards against accusing
// eliminated or nonexistent identities.
func hallucinatesLabel(text string, lexicon, active []string, myShape string) bool {
	activeSet := make(map[string]bool, len(active))
	for _, s := range active {
		activeSet[strings.ToLower(s)] = true
	}
	mine := strings.ToLower(myShape)

	for _, word := range strings.Fields(text) {
		for _, known := range lexicon {
			label := strings.ToLower(known)
			if word != label {
				continue
			}
			if !activeSet[label] && label != mine {
				return true
			}
		}
	}
	return false
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
