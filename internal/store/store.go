package store

import "shapechat/internal/models"

// Store is the persistence collaborator for games, players, messages and
// votes. Implementations must be safe for concurrent use; callers that need
// read-modify-write atomicity across calls serialize per game above this
// layer. Reads return copies, writers go through the patch functions.
type Store interface {
	CreateGame(g *models.Game)
	GetGame(id string) (*models.Game, bool)
	GetGameByCode(code string) (*models.Game, bool)
	PatchGame(id string, patch func(*models.Game)) bool
	DeleteGame(id string)

	CreatePlayer(p *models.Player)
	GetPlayer(id string) (*models.Player, bool)
	PlayersByGame(gameID string) []*models.Player
	PatchPlayer(id string, patch func(*models.Player)) bool
	DeletePlayer(id string)

	AppendMessage(m *models.Message)
	MessagesByGame(gameID string) []*models.Message

	AddVote(v *models.Vote)
	VotesByRound(gameID string, round int) []*models.Vote
}
