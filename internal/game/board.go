// Package game implements the tic-tac-toe board and the two-player session
// state machine.
package game

import (
	"errors"
	"fmt"
)

// Mark is the content of a board cell.
type Mark byte

const (
	Empty Mark = '.'
	X     Mark = 'X'
	O     Mark = 'O'
)

// Opponent returns the other player's mark.
func (m Mark) Opponent() Mark {
	if m == X {
		return O
	}
	return X
}

func (m Mark) String() string { return string(m) }

var (
	ErrOccupied   = errors.New("cell occupied")
	ErrOutOfRange = errors.New("position out of range")
)

// Board is a 3x3 grid stored row-major.
type Board [9]Mark

// NewBoard returns an empty board.
func NewBoard() Board {
	var b Board
	for i := range b {
		b[i] = Empty
	}
	return b
}

func cellIndex(col, row int) (int, error) {
	if col < 1 || col > 3 || row < 1 || row > 3 {
		return 0, ErrOutOfRange
	}
	return (row-1)*3 + (col - 1), nil
}

// At returns the mark at a 1-based column and row.
func (b *Board) At(col, row int) Mark {
	i, err := cellIndex(col, row)
	if err != nil {
		return Empty
	}
	return b[i]
}

// Place puts m on an empty cell.
func (b *Board) Place(m Mark, col, row int) error {
	i, err := cellIndex(col, row)
	if err != nil {
		return err
	}
	if b[i] != Empty {
		return ErrOccupied
	}
	b[i] = m
	return nil
}

// lines lists every row, column and diagonal as cell indexes.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the mark holding three in a row, or Empty.
func (b *Board) Winner() Mark {
	for _, l := range lines {
		if m := b[l[0]]; m != Empty && m == b[l[1]] && m == b[l[2]] {
			return m
		}
	}
	return Empty
}

// Count returns the number of marked cells.
func (b *Board) Count() int {
	n := 0
	for _, m := range b {
		if m != Empty {
			n++
		}
	}
	return n
}

// Full reports whether every cell is marked.
func (b *Board) Full() bool { return b.Count() == len(b) }

// String renders the nine-character snapshot used on the wire.
func (b Board) String() string {
	buf := make([]byte, len(b))
	for i, m := range b {
		buf[i] = byte(m)
	}
	return string(buf)
}

// ParseBoard reads a nine-character snapshot as produced by String.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != len(b) {
		return b, fmt.Errorf("board snapshot %q: want %d cells", s, len(b))
	}
	for i := 0; i < len(s); i++ {
		switch m := Mark(s[i]); m {
		case Empty, X, O:
			b[i] = m
		default:
			return b, fmt.Errorf("board snapshot %q: bad cell %q", s, s[i])
		}
	}
	return b, nil
}
