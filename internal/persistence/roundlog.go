package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/spinworld/internal/engine"
)

// RoundLog writes one zstd-compressed JSONL entry per round.
type RoundLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// CreateRoundLog creates (or truncates) a round log at path.
func CreateRoundLog(path string) (*RoundLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &RoundLog{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Write appends one entry.
func (l *RoundLog) Write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return errors.New("round log closed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Close flushes and closes the log.
func (l *RoundLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return nil
	}
	errFlush := l.w.Flush()
	errEnc := l.enc.Close()
	errFile := l.f.Close()
	l.w, l.enc, l.f = nil, nil, nil
	return errors.Join(errFlush, errEnc, errFile)
}

// Observer returns an observer that logs every round report.
func (l *RoundLog) Observer() engine.Observer {
	return func(rep engine.RoundReport) {
		if err := l.Write(rep); err != nil {
			slog.Error("round log write failed", "round", rep.Round, "error", err)
		}
	}
}

// ReadRoundLog decodes every round report in a log, in order.
func ReadRoundLog(path string) ([]engine.RoundReport, error) {
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

	var out []engine.RoundReport
	jd := json.NewDecoder(dec)
	for {
		var rep engine.RoundReport
		if err := jd.Decode(&rep); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, rep)
	}
}
