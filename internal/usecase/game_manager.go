package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type botService interface {
	MakeTurn(session *entity.Session) (entity.Move, error)
}

// GameManager runs the core operations on behalf of a presentation layer.
// Mutations are serialized, so a delayed AI reply never interleaves with a human move.
type GameManager struct {
	logger *slog.Logger

	gameRepo   gameRepo
	botService botService

	mu sync.Mutex
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, botService botService) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		gameRepo:   gameRepo,
		botService: botService,
	}
}

func (that *GameManager) NewSession(ctx context.Context, mode entity.Mode) (*entity.Session, error) {
	session := entity.NewSession(pkg.GenerateSessionID(), mode)

	if err := that.updateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "sessionID", session.ID, "mode", session.Mode)

	return session, nil
}

func (that *GameManager) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	return that.getSessionByID(ctx, id)
}

// ChooseCell - applies a human move. In AI mode the human always plays X.
func (that *GameManager) ChooseCell(ctx context.Context, id string, pos entity.Position) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ChooseCell", "sessionID", id)

	session, err := that.getSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mark := session.Turn
	if session.IsWithAI() {
		mark = tictactoe.HumanMark
	}

	if err = tictactoe.MakeTurn(session, mark, pos); err != nil {
		log.Debug("move rejected", "cell", pos.String(), "error", err)
		return session, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.updateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Debug("move applied", "cell", pos.String(), "mark", mark, "status", session.Status)

	return session, nil
}

// RequestAIMove - computes and applies the AI reply for an AI session waiting on O.
func (that *GameManager) RequestAIMove(ctx context.Context, id string) (*entity.Session, entity.Move, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "RequestAIMove", "sessionID", id)

	session, err := that.getSessionByID(ctx, id)
	if err != nil {
		return nil, entity.Move{}, err
	}

	if !session.IsWithAI() {
		return session, entity.Move{}, apperror.ErrAIModeDisabled
	}

	if err = session.ConfirmInProgress(); err != nil {
		return session, entity.Move{}, err
	}

	if session.Turn != tictactoe.AIMark {
		return session, entity.Move{}, apperror.ErrNotYourTurn
	}

	started := time.Now()

	move, err := that.botService.MakeTurn(session)
	if err != nil {
		return session, entity.Move{}, fmt.Errorf("failed to make AI turn: %w", err)
	}

	if err = that.updateSession(ctx, session); err != nil {
		return nil, entity.Move{}, err
	}

	log.Debug("AI move applied", "cell", move.Position.String(), "status", session.Status, "took", time.Since(started))

	return session, move, nil
}

func (that *GameManager) Reset(ctx context.Context, id string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.getSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Reset()

	if err = that.updateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// ToggleMode - switches the mode, starts a new game and returns the label for the toggle control.
func (that *GameManager) ToggleMode(ctx context.Context, id string) (*entity.Session, string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.getSessionByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	session.ToggleMode()

	if err = that.updateSession(ctx, session); err != nil {
		return nil, "", err
	}

	that.logger.Info("mode toggled", "sessionID", id, "mode", session.Mode)

	return session, session.Mode.Label(), nil
}

func (that *GameManager) EndSession(ctx context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	that.logger.Info("session ended", "sessionID", id)

	return nil
}

func (that *GameManager) getSessionByID(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (that *GameManager) updateSession(ctx context.Context, session *entity.Session) error {
	session.UpdatedAt = time.Now().UTC()

	if err := that.gameRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}
