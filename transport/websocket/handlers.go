package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	actionSessionNew   = "session:new"
	actionSessionGet   = "session:get"
	actionCellChoose   = "cell:choose"
	actionAIMove       = "ai:move"
	actionSessionReset = "session:reset"
	actionModeToggle   = "mode:toggle"
)

func (that *Server) handleNewSession(ctx context.Context, conn *connection, payload *RequestPayload) error {
	log := that.logger.With("method", "handleNewSession")

	mode, err := entity.ParseMode(payload.Mode)
	if err != nil {
		return conn.sendError(actionSessionNew, err.Error())
	}

	session, err := that.gameUseCase.NewSession(ctx, mode)
	if err != nil {
		log.Error("failed to create session", "error", err)
		return conn.sendError(actionSessionNew, "failed to create a new session")
	}

	log.Info("session created", "sessionID", session.ID, "mode", session.Mode)

	return conn.send(actionSessionNew, ResponsePayload{Session: session})
}

func (that *Server) handleGetSession(ctx context.Context, conn *connection, payload *RequestPayload) error {
	if payload.SessionID == "" {
		return conn.sendError(actionSessionGet, "session_id is required")
	}

	session, err := that.gameUseCase.GetSession(ctx, payload.SessionID)
	if err != nil {
		return that.sendUseCaseError(conn, actionSessionGet, err)
	}

	return conn.send(actionSessionGet, ResponsePayload{Session: session})
}

func (that *Server) handleChooseCell(ctx context.Context, conn *connection, payload *RequestPayload) error {
	log := that.logger.With("method", "handleChooseCell")

	if payload.SessionID == "" {
		return conn.sendError(actionCellChoose, "session_id is required")
	}

	if payload.Cell == nil {
		return conn.sendError(actionCellChoose, "cell is required")
	}

	session, err := that.gameUseCase.ChooseCell(ctx, payload.SessionID, *payload.Cell)
	if err != nil {
		return that.sendUseCaseError(conn, actionCellChoose, err)
	}

	if err = conn.send(actionCellChoose, ResponsePayload{Session: session}); err != nil {
		return err
	}

	if that.awaitsAIReply(session) {
		log.Debug("scheduling ai reply", "sessionID", session.ID, "delay", that.bot.ReplyDelay)
		conn.schedule(session.ID, that.bot.ReplyDelay, func() {
			that.replyWithAIMove(ctx, conn, session.ID)
		})
	}

	return nil
}

func (that *Server) handleAIMove(ctx context.Context, conn *connection, payload *RequestPayload) error {
	if payload.SessionID == "" {
		return conn.sendError(actionAIMove, "session_id is required")
	}

	session, move, err := that.gameUseCase.RequestAIMove(ctx, payload.SessionID)
	if err != nil {
		return that.sendUseCaseError(conn, actionAIMove, err)
	}

	return conn.send(actionAIMove, ResponsePayload{Session: session, Move: &move})
}

func (that *Server) handleReset(ctx context.Context, conn *connection, payload *RequestPayload) error {
	if payload.SessionID == "" {
		return conn.sendError(actionSessionReset, "session_id is required")
	}

	session, err := that.gameUseCase.Reset(ctx, payload.SessionID)
	if err != nil {
		return that.sendUseCaseError(conn, actionSessionReset, err)
	}

	conn.cancelPending(session.ID)

	return conn.send(actionSessionReset, ResponsePayload{Session: session})
}

func (that *Server) handleToggleMode(ctx context.Context, conn *connection, payload *RequestPayload) error {
	if payload.SessionID == "" {
		return conn.sendError(actionModeToggle, "session_id is required")
	}

	session, label, err := that.gameUseCase.ToggleMode(ctx, payload.SessionID)
	if err != nil {
		return that.sendUseCaseError(conn, actionModeToggle, err)
	}

	conn.cancelPending(session.ID)

	return conn.send(actionModeToggle, ResponsePayload{Session: session, Label: label})
}

func (that *Server) awaitsAIReply(session *entity.Session) bool {
	return !that.bot.DisableAutoReply &&
		session.IsWithAI() &&
		!session.IsFinished() &&
		session.Turn == entity.PlayerO
}

// replyWithAIMove - pushes the delayed AI move. A reply made stale by a reset or mode switch is dropped.
func (that *Server) replyWithAIMove(ctx context.Context, conn *connection, sessionID string) {
	log := that.logger.With("method", "replyWithAIMove", "sessionID", sessionID)

	session, move, err := that.gameUseCase.RequestAIMove(ctx, sessionID)
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameAlreadyOver),
		errors.Is(err, apperror.ErrAIModeDisabled),
		errors.Is(err, apperror.ErrSessionNotFound):
		log.Debug("dropping stale ai reply", "error", err)
		return
	case err != nil:
		log.Error("failed to make ai move", "error", err)
		if err = conn.sendError(actionAIMove, "failed to make ai move"); err != nil {
			log.Error("failed to send error", "error", err)
		}
		return
	}

	if err = conn.send(actionAIMove, ResponsePayload{Session: session, Move: &move}); err != nil {
		log.Error("failed to send ai move", "error", err)
	}
}

// sendUseCaseError - reports rule violations to the client and hides internal failures.
func (that *Server) sendUseCaseError(conn *connection, action string, err error) error {
	for _, known := range []error{
		apperror.ErrOutOfBounds,
		apperror.ErrCellOccupied,
		apperror.ErrGameAlreadyOver,
		apperror.ErrNotYourTurn,
		apperror.ErrAIModeDisabled,
		apperror.ErrNoLegalMoveAvailable,
		apperror.ErrSessionNotFound,
	} {
		if errors.Is(err, known) {
			return conn.sendError(action, err.Error())
		}
	}

	if sendErr := conn.sendError(action, "internal error"); sendErr != nil {
		return fmt.Errorf("%w: %w", err, sendErr)
	}

	return fmt.Errorf("%s: %w", action, err)
}
