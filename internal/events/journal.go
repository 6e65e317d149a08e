package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Journal persists emitted events as JSON lines so other processes can follow
// the live stream. Write failures are swallowed.
type Journal struct {
	path string
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJournal creates (or truncates) the journal at path. An empty path
// disables journaling and returns a nil Journal, which is safe to use.
func NewJournal(path string) (*Journal, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal dir: %w", err)
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", trimmed, err)
	}
	return &Journal{
		path: trimmed,
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Append writes evt as one line.
func (j *Journal) Append(evt Event) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.ensureWriter(); err != nil {
		return
	}
	_ = j.enc.Encode(evt)
}

// Path returns the on-disk location backing the journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close releases the journal file handle.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var err error
	if j.file != nil {
		err = j.file.Close()
	}
	j.file = nil
	j.enc = nil
	return err
}

func (j *Journal) ensureWriter() error {
	if j.file != nil && j.enc != nil {
		return nil
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	j.file = file
	j.enc = json.NewEncoder(file)
	return nil
}

// ReadJournal returns the last limit events recorded at path (0 means all).
// A missing journal yields no events.
func ReadJournal(path string, limit int) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var result []Event
	for {
		var evt Event
		if err := decoder.Decode(&evt); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return result, fmt.Errorf("decode journal %s: %w", path, err)
		}
		result = append(result, evt)
		if limit > 0 && len(result) > limit {
			result = result[1:]
		}
	}
	return result, nil
}
