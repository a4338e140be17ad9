// Package stream decodes serialized values in bulk.
//
// It covers the two shapes serialized data usually arrives in:
//   - a byte stream holding records back to back, optionally separated by
//     whitespace (database column exports, cache dumps): see Scanner
//   - a set of independent blobs: see DecodeAll
//
// Every record carries a CRC-32 of its raw bytes and can be fingerprinted
// with the SHA-256 of its canonical dump.
package stream

import (
	"fmt"

	"github.com/Neumenon/unserial/unserial"
)

// MaxRecordSize is the default maximum size of a single record (64 MiB).
const MaxRecordSize = 64 * 1024 * 1024

// Record is one decoded value read by a Scanner.
type Record struct {
	Index  int             // 0-based position in the stream
	Offset int64           // byte offset of Raw in the stream
	Raw    []byte          // exact serialized bytes
	Value  *unserial.Value // decoded value
	CRC    uint32          // CRC-32 IEEE of Raw
}

// Fingerprint returns the SHA-256 of the record's canonical dump.
func (r *Record) Fingerprint() [32]byte {
	return Fingerprint(r.Value)
}

// Input is one blob handed to DecodeAll.
type Input struct {
	Name string
	Data []byte
}

// Result is the outcome of decoding one Input.
type Result struct {
	Name        string
	Value       *unserial.Value
	Fingerprint [32]byte
	Err         error
}

// RecordError reports a record that could not be read.
type RecordError struct {
	Index  int
	Offset int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("stream: record %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// CRCMismatchError is returned when a record's bytes do not match an
// expected checksum.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}
