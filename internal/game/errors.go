package game

import "errors"

// ValidationError marks an operation whose preconditions were unmet. It is
// surfaced synchronously to the acting player and never mutates state.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validation(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

// IsValidation reports whether err is a player-visible precondition failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrGameNotFound     = validation("game not found")
	ErrPlayerNotFound   = validation("player not found")
	ErrWrongPhase       = validation("action not allowed in this phase")
	ErrGameStarted      = validation("game already started")
	ErrGameEnded        = validation("game has ended")
	ErrLobbyFull        = validation("lobby full")
	ErrNotEnoughPlayers = validation("need at least 3 players")
	ErrNotHost          = validation("only the host can start the game")
	ErrEliminated       = validation("player is eliminated")
	ErrCooldown         = validation("sending too fast")
	ErrEmptyMessage     = validation("message is empty")
	ErrNameRequired     = validation("name is required")
)
