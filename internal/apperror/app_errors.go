package apperror

import "errors"

var (
	ErrOutOfBounds          = errors.New("cell is out of bounds")
	ErrCellOccupied         = errors.New("cell is already occupied")
	ErrGameAlreadyOver      = errors.New("game is already over")
	ErrNoLegalMoveAvailable = errors.New("no legal move available")
	ErrNotYourTurn          = errors.New("it's not your turn")
	ErrAIModeDisabled       = errors.New("session is not in AI mode")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUnknownMode          = errors.New("unknown game mode")
)
