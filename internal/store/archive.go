package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/five82/qaboard/internal/gateway"
)

// Archive appends pruned questions to daily zstd-compressed JSONL files.
// Each Write adds one zstd frame; concatenated frames decode as one stream.
type Archive struct {
	dir    string
	prefix string
	now    func() time.Time

	mu sync.Mutex
}

// NewArchive writes under dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir, prefix: "questions", now: time.Now}
}

// Write appends one JSON line per question.
func (a *Archive) Write(questions []gateway.Question) (err error) {
	if len(questions) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.PathFor(a.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return fmt.Errorf("archive encoder: %w", err)
	}
	w := bufio.NewWriter(enc)
	for _, q := range questions {
		b, err := json.Marshal(q)
		if err != nil {
			_ = enc.Close()
			return fmt.Errorf("encode archived question: %w", err)
		}
		if _, err := w.Write(b); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write archive: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write archive: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish archive frame: %w", err)
	}
	return nil
}

// PathFor names the archive file for the UTC day of t.
func (a *Archive) PathFor(t time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s-%s.jsonl.zst", a.prefix, t.UTC().Format("2006-01-02")))
}
