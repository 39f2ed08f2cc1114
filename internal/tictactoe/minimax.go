package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// AIMark is the maximizing side, HumanMark the minimizing one.
const (
	AIMark    = entity.PlayerO
	HumanMark = entity.PlayerX
)

const (
	winScore  = 10
	lossScore = -10
	drawScore = 0

	initMaxScore = -1000
	initMinScore = 1000
)

// SearchResult describes the outcome of a root search.
type SearchResult struct {
	Move  entity.Position
	Score int
	Nodes int
}

// Evaluate - scores a position from the AI's point of view: +10 for an O line, -10 for an X line, 0 otherwise.
func Evaluate(board entity.Board) int {
	switch lineWinner(&board) {
	case AIMark:
		return winScore
	case HumanMark:
		return lossScore
	default:
		return drawScore
	}
}

// Minimax - returns the value of the board under optimal play with no pruning.
// The depth is counted but does not influence the score, so a quick win and a slow win are equal.
func Minimax(board entity.Board, depth int, isMax bool) int {
	s := &searcher{}
	return s.minimax(&board, depth, isMax)
}

// FindBestMove - picks the AI's move. Ties go to the first cell in row-major order.
func FindBestMove(board entity.Board) (entity.Position, error) {
	result, err := Search(board)
	if err != nil {
		return entity.Position{}, err
	}

	return result.Move, nil
}

// Search - runs the full root search on a private copy of the board.
func Search(board entity.Board) (SearchResult, error) {
	if !board.HasEmptyCell() {
		return SearchResult{}, apperror.ErrNoLegalMoveAvailable
	}

	s := &searcher{}
	best := SearchResult{Score: initMaxScore}
	found := false

	for _, pos := range board.EmptyCells() {
		score := s.withMark(&board, pos, AIMark, func() int {
			return s.minimax(&board, 0, false)
		})

		if !found || score > best.Score {
			best.Move = pos
			best.Score = score
			found = true
		}
	}

	best.Nodes = s.nodes

	return best, nil
}

type searcher struct {
	nodes int
}

func (that *searcher) minimax(board *entity.Board, depth int, isMax bool) int {
	that.nodes++

	score := Evaluate(*board)
	if score == winScore || score == lossScore {
		return score
	}

	if !board.HasEmptyCell() {
		return drawScore
	}

	best := initMinScore
	mark := HumanMark
	if isMax {
		best = initMaxScore
		mark = AIMark
	}

	for row := range board {
		for col := range board[row] {
			if board[row][col] != entity.EmptyCell {
				continue
			}

			value := that.withMark(board, entity.Position{Row: row, Col: col}, mark, func() int {
				return that.minimax(board, depth+1, !isMax)
			})

			if isMax {
				best = max(best, value)
			} else {
				best = min(best, value)
			}
		}
	}

	return best
}

// withMark - places a speculative mark, runs fn and always clears the cell again.
func (that *searcher) withMark(board *entity.Board, pos entity.Position, mark entity.Mark, fn func() int) int {
	board[pos.Row][pos.Col] = mark
	defer func() {
		board[pos.Row][pos.Col] = entity.EmptyCell
	}()

	return fn()
}
