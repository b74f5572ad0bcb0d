package wal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

const (
	// MaxJournalFileSize is the maximum size of a single journal file (16MB)
	MaxJournalFileSize = 16 << 20

	// MaxJournalFiles is the maximum number of journal files to keep
	MaxJournalFiles = 3
)

// Journal is an append-only record of committed document events, written
// ahead of the periodic snapshot. After a crash, replaying the journal
// over the last snapshot recovers every edit that made it to disk.
type Journal struct {
	// Path is the base path for journal files (e.g., "/data/sermon.wal")
	Path string

	// fd is the current journal file descriptor
	fd *os.File

	// mu protects concurrent access to the journal
	mu sync.Mutex

	// seq is the current sequence number (atomic)
	seq uint64

	// fileSize is the current journal file size
	fileSize int64

	// fileIndex is the current journal file index (0, 1, 2, ...)
	fileIndex int

	// closed indicates whether the journal is closed
	closed bool
}

// Open opens or creates the journal
func (j *Journal) Open() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Find existing journal files
	files, err := j.findFiles()
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	// Open the latest file or create a new one
	if len(files) > 0 {
		// Open latest file in append mode
		latestFile := files[len(files)-1]
		fd, err := os.OpenFile(latestFile, os.O_RDWR|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		j.fd = fd

		// Get file size
		stat, err := fd.Stat()
		if err != nil {
			return err
		}
		j.fileSize = stat.Size()

		// Parse file index from name
		_, err = fmt.Sscanf(filepath.Base(latestFile), j.baseName()+".%d", &j.fileIndex)
		if err != nil {
			j.fileIndex = 0
		}

		// Scan for the highest sequence number
		maxSeq, err := j.scanForHighestSeq(files)
		if err != nil {
			return err
		}
		atomic.StoreUint64(&j.seq, maxSeq)
	} else {
		// Create first journal file
		logPath := j.filePath(0)
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return err
		}
		fd, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		j.fd = fd
		j.fileSize = 0
		j.fileIndex = 0
		atomic.StoreUint64(&j.seq, 0)
	}

	j.closed = false
	return nil
}

// nextSeq returns the next sequence number
func (j *Journal) nextSeq() uint64 {
	return atomic.AddUint64(&j.seq, 1)
}

// Append writes one committed event to the journal. The record is synced
// before Append returns: an edit acknowledged to the caller survives a
// crash.
func (j *Journal) Append(ev *event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("wal: encoding event %s: %w", ev.ID, err)
	}
	entry := Entry{
		Seq:       j.nextSeq(),
		Version:   ev.Version,
		Op:        OpEvent,
		Payload:   payload,
		Timestamp: ev.Timestamp,
	}
	return j.write(entry)
}

// Checkpoint records that the document state at version has been
// persisted elsewhere, then drops journal files made obsolete by the
// marker. Recovery ignores everything before the last checkpoint.
func (j *Journal) Checkpoint(version int) error {
	entry := Entry{
		Seq:       j.nextSeq(),
		Version:   version,
		Op:        OpCheckpoint,
		Timestamp: time.Now().UTC(),
	}
	if err := j.write(entry); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cleanObsoleteNoLock()
}

// write encodes and persists a single entry
func (j *Journal) write(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrLogClosed
	}

	data := entry.Encode()

	// Check if rotation is needed
	if j.fileSize+int64(len(data)) > MaxJournalFileSize {
		if err := j.rotateNoLock(); err != nil {
			return err
		}
	}

	n, err := j.fd.Write(data)
	if err != nil {
		return err
	}
	j.fileSize += int64(n)

	return j.fd.Sync()
}

// Close closes the journal
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	err := j.fd.Close()
	j.closed = true
	return err
}

// rotateNoLock rotates to a new journal file (caller must hold mu)
func (j *Journal) rotateNoLock() error {
	// Sync current file before closing
	if err := j.fd.Sync(); err != nil {
		return err
	}
	if err := j.fd.Close(); err != nil {
		return err
	}

	// Open next file
	j.fileIndex++
	logPath := j.filePath(j.fileIndex)
	fd, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	j.fd = fd
	j.fileSize = 0

	// Clean old journal files (keep last MaxJournalFiles)
	return j.cleanOldNoLock(MaxJournalFiles)
}

// cleanObsoleteNoLock removes every file older than the current one.
// Safe only after a checkpoint marker landed in the current file.
func (j *Journal) cleanObsoleteNoLock() error {
	return j.cleanOldNoLock(1)
}

// cleanOldNoLock keeps the newest keep files (caller must hold mu)
func (j *Journal) cleanOldNoLock(keep int) error {
	files, err := j.findFiles()
	if err != nil {
		return err
	}
	if len(files) > keep {
		toRemove := files[:len(files)-keep]
		for _, f := range toRemove {
			os.Remove(f) // Ignore errors
		}
	}
	return nil
}

// baseName returns the base filename for journal files
func (j *Journal) baseName() string {
	return filepath.Base(j.Path)
}

// filePath returns the path for a journal file with the given index
func (j *Journal) filePath(index int) string {
	dir := filepath.Dir(j.Path)
	name := fmt.Sprintf("%s.%03d", j.baseName(), index)
	return filepath.Join(dir, name)
}

// findFiles returns all journal files sorted by index
func (j *Journal) findFiles() ([]string, error) {
	dir := filepath.Dir(j.Path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && j.isJournalFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	// Sort files by index
	sort.Slice(files, func(a, b int) bool {
		var idxA, idxB int
		pattern := j.baseName() + ".%d"
		fmt.Sscanf(filepath.Base(files[a]), pattern, &idxA)
		fmt.Sscanf(filepath.Base(files[b]), pattern, &idxB)
		return idxA < idxB
	})

	return files, nil
}

// isJournalFile returns true if the filename is a journal file for this path
func (j *Journal) isJournalFile(name string) bool {
	var index int
	pattern := j.baseName() + ".%d"
	_, err := fmt.Sscanf(name, pattern, &index)
	return err == nil
}

// scanForHighestSeq scans all journal files and returns the highest sequence number
func (j *Journal) scanForHighestSeq(files []string) (uint64, error) {
	var maxSeq uint64

	for _, file := range files {
		fd, err := os.Open(file)
		if err != nil {
			return 0, err
		}

		for {
			entry, err := j.readEntry(fd)
			if err == io.EOF {
				break
			}
			if err != nil {
				// Skip corrupted entries by seeking forward
				// This prevents infinite loops when corruption occurs
				fd.Seek(1024, io.SeekCurrent)
				continue
			}

			if entry.Seq > maxSeq {
				maxSeq = entry.Seq
			}
		}

		fd.Close()
	}

	return maxSeq, nil
}

// readEntry reads a single entry from the reader
func (j *Journal) readEntry(r io.Reader) (*Entry, error) {
	// Read header first
	header := make([]byte, EntryHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	// Parse payload length
	payloadLen := binary.LittleEndian.Uint32(header[24:28])

	// Read payload and CRC32
	dataLen := int(payloadLen) + 4
	data := make([]byte, EntryHeaderSize+dataLen)
	copy(data, header)
	if _, err := io.ReadFull(r, data[EntryHeaderSize:]); err != nil {
		return nil, err
	}

	return DecodeEntry(data)
}
