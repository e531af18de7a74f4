package network

import (
	"bufio"
	"io"
)

// frameBufferSize bounds a single line. A legal frame never comes close.
const frameBufferSize = 512

// Reader reads newline-terminated frames from a stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r in a bounded frame reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, frameBufferSize)}
}

// ReadFrame returns the next line without its newline. A stream that ends
// mid-line yields io.ErrUnexpectedEOF; an orderly close yields io.EOF.
func (r *Reader) ReadFrame() (string, error) {
	line, err := r.br.ReadSlice('\n')
	switch {
	case err == bufio.ErrBufferFull:
		return "", ErrFrameTooLong
	case err == io.EOF && len(line) > 0:
		return "", io.ErrUnexpectedEOF
	case err != nil:
		return "", err
	}
	return string(line[:len(line)-1]), nil
}
