package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// OpType represents the type of journal record
type OpType byte

const (
	// OpEvent carries one JSON-encoded document event
	OpEvent OpType = 1

	// OpCheckpoint marks that the document state up to Version has been
	// persisted elsewhere; earlier records are obsolete
	OpCheckpoint OpType = 2
)

const (
	// EntryHeaderSize is the fixed size of the entry header
	// Layout: Seq(8) + Version(8) + OpType(1) + Reserved(7) + PayloadLen(4) + Timestamp(8)
	EntryHeaderSize = 36
)

// Entry represents a single journal record
type Entry struct {
	Seq       uint64    // Sequence number (monotonically increasing)
	Version   int       // Document version the record refers to
	Op        OpType    // Record type
	Payload   []byte    // JSON-encoded event (for EVENT records only)
	Timestamp time.Time // Record timestamp
}

// Encode serializes the entry to bytes with CRC32 checksum
// Format: [Header(36)] [Payload] [CRC32(4)]
func (e *Entry) Encode() []byte {
	payloadLen := len(e.Payload)
	totalSize := EntryHeaderSize + payloadLen + 4 // +4 for CRC32

	buf := make([]byte, totalSize)

	// Encode header
	binary.LittleEndian.PutUint64(buf[0:8], e.Seq)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Version))
	buf[16] = byte(e.Op)
	// bytes 17-23 are reserved (padding)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(payloadLen))
	binary.LittleEndian.PutUint64(buf[28:36], uint64(e.Timestamp.Unix()))

	// Encode payload
	offset := EntryHeaderSize
	copy(buf[offset:], e.Payload)
	offset += payloadLen

	// Compute and append CRC32 checksum (excludes the CRC32 field itself)
	crc := crc32.ChecksumIEEE(buf[:offset])
	binary.LittleEndian.PutUint32(buf[offset:offset+4], crc)

	return buf
}

// DecodeEntry deserializes a journal entry from bytes
func DecodeEntry(data []byte) (*Entry, error) {
	if len(data) < EntryHeaderSize+4 {
		return nil, ErrTruncated
	}

	// Verify CRC32 checksum
	dataLen := len(data)
	storedCRC := binary.LittleEndian.Uint32(data[dataLen-4:])
	computedCRC := crc32.ChecksumIEEE(data[:dataLen-4])
	if storedCRC != computedCRC {
		return nil, ErrCorrupted
	}

	// Decode header
	entry := &Entry{
		Seq:     binary.LittleEndian.Uint64(data[0:8]),
		Version: int(binary.LittleEndian.Uint64(data[8:16])),
		Op:      OpType(data[16]),
	}

	payloadLen := binary.LittleEndian.Uint32(data[24:28])
	timestamp := binary.LittleEndian.Uint64(data[28:36])
	entry.Timestamp = time.Unix(int64(timestamp), 0)

	// Validate entry size
	expectedSize := EntryHeaderSize + int(payloadLen) + 4
	if len(data) < expectedSize {
		return nil, ErrTruncated
	}

	// Decode payload
	if payloadLen > 0 {
		entry.Payload = make([]byte, payloadLen)
		copy(entry.Payload, data[EntryHeaderSize:EntryHeaderSize+int(payloadLen)])
	}

	return entry, nil
}

// Size returns the encoded size of the entry
func (e *Entry) Size() int {
	return EntryHeaderSize + len(e.Payload) + 4
}

// String returns a human-readable representation of the entry
func (e *Entry) String() string {
	opName := "UNKNOWN"
	switch e.Op {
	case OpEvent:
		opName = "EVENT"
	case OpCheckpoint:
		opName = "CHECKPOINT"
	}
	return fmt.Sprintf("WAL[Seq=%d Version=%d Op=%s PayloadLen=%d]",
		e.Seq, e.Version, opName, len(e.Payload))
}
