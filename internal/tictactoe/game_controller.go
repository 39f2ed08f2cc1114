package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// WinLines lists the 8 winning triples: rows, columns, then both diagonals.
var WinLines = [8][3]entity.Position{
	{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
	{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
	{{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
	{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 1}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 2, Col: 0}},
}

// MakeTurn - applies a move of the given mark to the session and updates its status.
func MakeTurn(session *entity.Session, mark entity.Mark, pos entity.Position) error {
	if err := session.ConfirmInProgress(); err != nil {
		return err
	}

	if err := validateMove(session, mark, pos); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	if err := ApplyMove(&session.Board, mark, pos); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	session.MoveCount++
	updateGameStatus(session, mark)

	return nil
}

// ApplyMove - places a mark on the board. The board is not modified on error.
func ApplyMove(board *entity.Board, mark entity.Mark, pos entity.Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, pos)
	}

	if board.At(pos) != entity.EmptyCell {
		return fmt.Errorf("%w: %s", apperror.ErrCellOccupied, pos)
	}

	board[pos.Row][pos.Col] = mark

	return nil
}

// validateMove - checks the bounds before the turn so that a bad index is reported as such.
func validateMove(session *entity.Session, mark entity.Mark, pos entity.Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, pos)
	}

	if session.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// updateGameStatus - re-evaluates the board after a move and passes the turn on while the game continues.
// A finished game keeps the last mover as Turn.
func updateGameStatus(session *entity.Session, mark entity.Mark) {
	session.Status = EvaluateStatus(session.Board)

	if session.Status.IsFinished() {
		return
	}

	session.Turn = mark.Opponent()
}

// EvaluateStatus - reports a win on the first complete line, then a draw on a full board.
func EvaluateStatus(board entity.Board) entity.Status {
	if mark := lineWinner(&board); mark != entity.EmptyCell {
		return entity.WonBy(mark)
	}

	if !board.HasEmptyCell() {
		return entity.StatusDraw
	}

	return entity.StatusInProgress
}

func lineWinner(board *entity.Board) entity.Mark {
	for _, line := range WinLines {
		a, b, c := board.At(line[0]), board.At(line[1]), board.At(line[2])
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	return entity.EmptyCell
}
