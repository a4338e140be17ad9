package stream

import (
	"hash/crc32"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC checks a record's raw bytes against an expected checksum.
func (r *Record) VerifyCRC(expected uint32) error {
	if got := ComputeCRC(r.Raw); got != expected {
		return &CRCMismatchError{Expected: expected, Got: got}
	}
	return nil
}
