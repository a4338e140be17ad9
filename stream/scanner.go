package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/Neumenon/unserial/unserial"
)

// Scanner reads back-to-back serialized values from an io.Reader.
type Scanner struct {
	sc      *bufio.Scanner
	maxSize int
	log     *zap.Logger

	index    int   // index of the next record
	consumed int64 // bytes handed past by the split function
	offset   int64 // offset of the last token
	value    *unserial.Value
	err      error
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithMaxRecordSize sets the maximum record size (default: 64 MiB).
func WithMaxRecordSize(max int) ScannerOption {
	return func(s *Scanner) {
		s.maxSize = max
	}
}

// WithLogger routes decoder traces and warnings to log.
func WithLogger(log *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		s.log = log
	}
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		maxSize: MaxRecordSize,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sc = bufio.NewScanner(r)
	initial := 64 * 1024
	if s.maxSize < initial {
		initial = s.maxSize
	}
	s.sc.Buffer(make([]byte, 0, initial), s.maxSize)
	s.sc.Split(s.split)
	return s
}

// Next reads and returns the next record.
// Returns io.EOF when no more records are available.
func (s *Scanner) Next() (*Record, error) {
	if s.err != nil {
		return nil, s.err
	}

	if !s.sc.Scan() {
		err := s.sc.Err()
		if err == nil {
			s.err = io.EOF
			return nil, io.EOF
		}
		var recErr *RecordError
		if !errors.As(err, &recErr) {
			err = &RecordError{Index: s.index, Offset: s.consumed, Err: err}
		}
		s.err = err
		return nil, err
	}

	raw := bytes.Clone(s.sc.Bytes())
	rec := &Record{
		Index:  s.index,
		Offset: s.offset,
		Raw:    raw,
		Value:  s.value,
		CRC:    ComputeCRC(raw),
	}
	s.index++
	s.value = nil
	return rec, nil
}

// ReadAll reads all records until EOF.
func (s *Scanner) ReadAll() ([]*Record, error) {
	var records []*Record
	for {
		rec, err := s.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// split is a bufio.SplitFunc yielding one serialized value per token.
// Whitespace between values is skipped. A value cut off by the end of
// the buffer asks for more data; at EOF it is an error.
func (s *Scanner) split(data []byte, atEOF bool) (int, []byte, error) {
	skip := 0
	for skip < len(data) && isSpace(data[skip]) {
		skip++
	}
	if skip == len(data) {
		s.consumed += int64(skip)
		return skip, nil, nil
	}

	opts := unserial.DecodeOptions{Logger: s.log.With(zap.Int("record", s.index))}
	v, n, err := unserial.DecodePrefix(string(data[skip:]), opts)
	if err != nil {
		if errors.Is(err, unserial.ErrUnexpectedEnd) && !atEOF {
			s.consumed += int64(skip)
			return skip, nil, nil
		}
		return 0, nil, &RecordError{Index: s.index, Offset: s.consumed + int64(skip), Err: err}
	}

	s.offset = s.consumed + int64(skip)
	s.consumed += int64(skip + n)
	s.value = v
	return skip + n, data[skip : skip+n], nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
