package service

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type BotService interface {
	MakeTurn(session *entity.Session) (entity.Move, error)
}

type botService struct {
	logger *slog.Logger
}

func NewBotService(logger *slog.Logger) BotService {
	return &botService{
		logger: logger.With("component", "bot"),
	}
}

// MakeTurn - searches the best reply for O and applies it to the session.
func (that *botService) MakeTurn(session *entity.Session) (entity.Move, error) {
	log := that.logger.With("method", "MakeTurn", "sessionID", session.ID)

	result, err := tictactoe.Search(session.Board)
	if err != nil {
		return entity.Move{}, fmt.Errorf("bot failed to find a move: %w", err)
	}

	if err = tictactoe.MakeTurn(session, tictactoe.AIMark, result.Move); err != nil {
		return entity.Move{}, fmt.Errorf("bot failed to make turn: %w", err)
	}

	log.Debug("bot made turn", "cell", result.Move.String(), "score", result.Score, "nodes", result.Nodes)

	return entity.Move{Position: result.Move, Mark: tictactoe.AIMark}, nil
}
