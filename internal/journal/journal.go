// Package journal appends match events to a zstd-compressed JSONL file, one
// file per match. The journal is observability output only: nothing ever reads
// it back into a running session.
package journal

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Event is one journal line.
type Event struct {
	Time   time.Time      `json:"time"`
	Tick   uint64         `json:"tick"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

type Writer struct {
	matchID string
	path    string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter opens a journal for a fresh match id under dir.
func NewWriter(dir string) (*Writer, error) {
	matchID := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, matchID+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		matchID: matchID,
		path:    path,
		f:       f,
		enc:     enc,
		w:       bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// MatchID returns the id the journal file is keyed by.
func (w *Writer) MatchID() string { return w.matchID }

// Path returns the journal file path.
func (w *Writer) Path() string { return w.path }

// Record appends one event. Errors are swallowed: journaling must never stall
// a tick.
func (w *Writer) Record(tick uint64, typ string, fields map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return
	}
	b, err := json.Marshal(Event{Time: time.Now().UTC(), Tick: tick, Type: typ, Fields: fields})
	if err != nil {
		return
	}
	_, _ = w.w.Write(b)
	_ = w.w.WriteByte('\n')
	_ = w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	_ = w.w.Flush()
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w = nil
	w.enc = nil
	w.f = nil
	return err
}

// Read decodes every event in a journal file, oldest first. Meant for offline
// inspection and tests.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var events []Event
	scanner := bufio.NewScanner(io.Reader(dec))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}
