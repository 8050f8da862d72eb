package game

import "strings"

// ChatLine is one recent message reduced to what the AI heuristics need
type ChatLine struct {
	Shape  string
	Text   string
	IsAI   bool
	System bool
}

// Signals is the structured view of the recent chat window. It feeds both
// the message engine and the vote strategist so neither scans raw text.
type Signals struct {
	LastSpeakerShape string
	LastSpeakerIsAI  bool
	RecentSwap       bool           // a shape shuffle was announced in the last few lines
	TalkCounts       map[string]int // human chat lines per shape
	Quietest         string         // active shape (not the AI) with no recent lines
	VoteCalls        map[string]int // shape -> "vote <shape>" calls in human chat
	AIAccusers       []string       // shapes of humans who named the AI's label
	AIAccused        bool
}

// swapAnnounceDepth is how many trailing lines are checked for a shuffle event
const swapAnnounceDepth = 3

// Analyze reduces the recent chat window to a signal set. lines are oldest
// first; activeShapes are the labels still in play; aiShape is the AI's own
// current label.
func Analyze(lines []ChatLine, activeShapes []string, aiShape string) Signals {
	sig := Signals{
		TalkCounts: make(map[string]int),
		VoteCalls:  make(map[string]int),
	}

	for i, line := range lines {
		if line.System {
			if i >= len(lines)-swapAnnounceDepth && strings.Contains(line.Text, "swapped") {
				sig.RecentSwap = true
			}
			continue
		}

		sig.LastSpeakerShape = line.Shape
		sig.LastSpeakerIsAI = line.IsAI

		if line.IsAI {
			continue
		}
		sig.TalkCounts[line.Shape]++

		text := strings.ToLower(line.Text)
		if aiShape != "" && strings.Contains(text, strings.ToLower(aiShape)) {
			sig.AIAccused = true
			if !contains(sig.AIAccusers, line.Shape) {
				sig.AIAccusers = append(sig.AIAccusers, line.Shape)
			}
		}
		if strings.Contains(text, "vote") {
			for _, shape := range activeShapes {
				if shape == line.Shape {
					continue // calling a vote on yourself does not count
				}
				if strings.Contains(text, strings.ToLower(shape)) {
					sig.VoteCalls[shape]++
				}
			}
		}
	}

	for _, shape := range activeShapes {
		if shape != aiShape && sig.TalkCounts[shape] == 0 {
			sig.Quietest = shape
			break
		}
	}
	return sig
}

// MobTarget returns the shape with strictly the most vote calls, or empty
// when there is no clear favorite
func (s Signals) MobTarget() string {
	best, bestCount, tied := "", 0, false
	for shape, count := range s.VoteCalls {
		switch {
		case count > bestCount:
			best, bestCount, tied = shape, count, false
		case count == bestCount && count > 0:
			tied = true
		}
	}
	if tied || bestCount == 0 {
		return ""
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
