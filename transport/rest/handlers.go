package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type gameUseCase interface {
	NewSession(ctx context.Context, mode entity.Mode) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	ChooseCell(ctx context.Context, id string, pos entity.Position) (*entity.Session, error)
	RequestAIMove(ctx context.Context, id string) (*entity.Session, entity.Move, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
	ToggleMode(ctx context.Context, id string) (*entity.Session, string, error)
	EndSession(ctx context.Context, id string) error
}

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type chooseCellRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type response struct {
	Session *entity.Session `json:"session,omitempty"`
	Move    *entity.Move    `json:"move,omitempty"`
	Label   string          `json:"label,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type handlers struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}

func (that *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "invalid request body"})
		return
	}

	mode, err := entity.ParseMode(req.Mode)
	if err != nil {
		that.writeError(w, err)
		return
	}

	session, err := that.gameUseCase.NewSession(r.Context(), mode)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, response{Session: session})
}

func (that *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameUseCase.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Session: session})
}

func (that *handlers) chooseCell(w http.ResponseWriter, r *http.Request) {
	var req chooseCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "invalid request body"})
		return
	}

	if req.Row == nil || req.Col == nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "row and col are required"})
		return
	}

	pos := entity.Position{Row: *req.Row, Col: *req.Col}

	session, err := that.gameUseCase.ChooseCell(r.Context(), chi.URLParam(r, "id"), pos)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Session: session})
}

func (that *handlers) requestAIMove(w http.ResponseWriter, r *http.Request) {
	session, move, err := that.gameUseCase.RequestAIMove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Session: session, Move: &move})
}

func (that *handlers) reset(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameUseCase.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Session: session})
}

func (that *handlers) toggleMode(w http.ResponseWriter, r *http.Request) {
	session, label, err := that.gameUseCase.ToggleMode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Session: session, Label: label})
}

func (that *handlers) endSession(w http.ResponseWriter, r *http.Request) {
	if err := that.gameUseCase.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
		that.writeJSON(w, code, response{Error: "internal server error"})
		return
	}

	that.writeJSON(w, code, response{Error: err.Error()})
}

func (that *handlers) writeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrOutOfBounds), errors.Is(err, apperror.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameAlreadyOver),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrAIModeDisabled),
		errors.Is(err, apperror.ErrNoLegalMoveAvailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
