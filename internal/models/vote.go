package models

// Vote records one player's choice for one round. Inserted on cast, never
// updated; prior rounds are only superseded by new round numbers.
type Vote struct {
	ID       string
	GameID   string
	Round    int
	VoterID  string
	TargetID string // empty means abstain
}

// Abstain reports whether the vote names no target
func (v *Vote) Abstain() bool {
	return v.TargetID == ""
}
