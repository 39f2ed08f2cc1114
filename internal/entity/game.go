package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

const BoardSize = 3

// Mark is the content of a single cell.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Opponent returns the other player's mark. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWonByX     Status = "x_won"
	StatusWonByO     Status = "o_won"
	StatusDraw       Status = "draw"
)

// WonBy - returns the terminal status for a completed line of the given mark.
func WonBy(mark Mark) Status {
	if mark == PlayerO {
		return StatusWonByO
	}
	return StatusWonByX
}

// Winner - returns the winning mark, or EmptyCell when nobody has won.
func (that Status) Winner() Mark {
	switch that {
	case StatusWonByX:
		return PlayerX
	case StatusWonByO:
		return PlayerO
	default:
		return EmptyCell
	}
}

func (that Status) IsFinished() bool {
	return that != StatusInProgress
}

type Mode string

const (
	ModeHumanVsHuman Mode = "human_vs_human"
	ModeHumanVsAI    Mode = "human_vs_ai"
)

// ParseMode - validates a mode coming from an adapter. Empty input means human vs human.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeHumanVsHuman:
		return ModeHumanVsHuman, nil
	case ModeHumanVsAI:
		return ModeHumanVsAI, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, raw)
	}
}

func (that Mode) Toggle() Mode {
	if that == ModeHumanVsAI {
		return ModeHumanVsHuman
	}
	return ModeHumanVsAI
}

// Label - text of the control that switches away from this mode.
func (that Mode) Label() string {
	if that == ModeHumanVsAI {
		return "Play vs Player"
	}
	return "Play vs AI"
}

// Position addresses a cell by row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) IsValid() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// Move is a position together with the mark placed on it.
type Move struct {
	Position
	Mark Mark `json:"mark"`
}

func (that Move) String() string {
	return fmt.Sprintf("%s@%s", that.Mark, that.Position)
}

// Board is a 3x3 grid addressed as Board[row][col].
type Board [BoardSize][BoardSize]Mark

func (that *Board) At(pos Position) Mark {
	return that[pos.Row][pos.Col]
}

func (that *Board) HasEmptyCell() bool {
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				return true
			}
		}
	}
	return false
}

// EmptyCells - returns free positions in row-major order.
func (that *Board) EmptyCells() []Position {
	cells := make([]Position, 0, BoardSize*BoardSize)
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}
	return cells
}

// Session is the mutable state of one game between a presentation layer and the core.
type Session struct {
	ID        string    `json:"id"`
	Board     Board     `json:"board"`
	Turn      Mark      `json:"turn"`
	Status    Status    `json:"status"`
	Mode      Mode      `json:"mode"`
	MoveCount int       `json:"move_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, mode Mode) *Session {
	now := time.Now().UTC()

	session := &Session{
		ID:        id,
		Mode:      mode,
		CreatedAt: now,
	}
	session.Reset()
	session.UpdatedAt = now

	return session
}

// Reset - clears the board and gives the first move to X. The mode is kept.
func (that *Session) Reset() {
	that.Board = Board{}
	that.Turn = PlayerX
	that.Status = StatusInProgress
	that.MoveCount = 0
	that.UpdatedAt = time.Now().UTC()
}

// ToggleMode - switches the mode and always starts a new game.
func (that *Session) ToggleMode() {
	that.Mode = that.Mode.Toggle()
	that.Reset()
}

func (that *Session) IsFinished() bool {
	return that.Status.IsFinished()
}

func (that *Session) IsWithAI() bool {
	return that.Mode == ModeHumanVsAI
}

// ConfirmInProgress - returns ErrGameAlreadyOver once the session reached a terminal status.
func (that *Session) ConfirmInProgress() error {
	if that.IsFinished() {
		return fmt.Errorf("%w: %s", apperror.ErrGameAlreadyOver, that.Status)
	}
	return nil
}
