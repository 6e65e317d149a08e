package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follow streams events appended to the journal at path until ctx ends. When
// fromStart is false only events written after Follow starts are delivered.
// A missing journal is waited for; a truncated or recreated journal is read
// again from its beginning.
func Follow(ctx context.Context, path string, fromStart bool, fn func(Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure journal dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	t := &tailer{path: path, fn: fn}
	defer t.close()
	if err := t.open(!fromStart); err != nil {
		return err
	}
	t.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				t.close()
				if err := t.open(false); err != nil {
					return err
				}
				t.drain()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				t.close()
			case event.Has(fsnotify.Write):
				if t.file == nil {
					if err := t.open(false); err != nil {
						return err
					}
				}
				t.drain()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch journal: %w", err)
		}
	}
}

type tailer struct {
	path    string
	fn      func(Event)
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	pending []byte
}

func (t *tailer) open(seekEnd bool) error {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open journal %s: %w", t.path, err)
	}
	t.offset = 0
	if seekEnd {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return fmt.Errorf("seek journal: %w", err)
		}
		t.offset = end
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	t.pending = nil
	return nil
}

func (t *tailer) close() {
	if t.file != nil {
		_ = t.file.Close()
	}
	t.file = nil
	t.reader = nil
	t.pending = nil
}

func (t *tailer) drain() {
	if t.file == nil {
		return
	}
	if info, err := t.file.Stat(); err == nil && info.Size() < t.offset {
		if _, err := t.file.Seek(0, io.SeekStart); err == nil {
			t.offset = 0
			t.reader.Reset(t.file)
			t.pending = nil
		}
	}
	for {
		chunk, err := t.reader.ReadBytes('\n')
		t.offset += int64(len(chunk))
		t.pending = append(t.pending, chunk...)
		if err != nil {
			return
		}
		line := bytes.TrimSpace(t.pending)
		t.pending = nil
		if len(line) == 0 {
			continue
		}
		var evt Event
		if json.Unmarshal(line, &evt) == nil {
			t.fn(evt)
		}
	}
}
