package persistence

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestRoundLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rounds.jsonl.zst")
	l, err := CreateRoundLog(path)
	if err != nil {
		t.Fatalf("CreateRoundLog: %v", err)
	}
	obs := l.Observer()
	for round := 1; round <= 5; round++ {
		obs(testReport(round))
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := l.Write(testReport(6)); err == nil {
		t.Error("Write after Close should fail")
	}

	reps, err := ReadRoundLog(path)
	if err != nil {
		t.Fatalf("ReadRoundLog: %v", err)
	}
	if len(reps) != 5 {
		t.Fatalf("reports = %d, want 5", len(reps))
	}
	for i, rep := range reps {
		if rep.Round != i+1 {
			t.Errorf("report %d round = %d", i, rep.Round)
		}
		if len(rep.Snapshots) != 2 || rep.Snapshots[0].Name != "c0" {
			t.Errorf("report %d snapshots = %+v", i, rep.Snapshots)
		}
	}
}

func TestRoundLogObserverLogsWriteErrors(t *testing.T) {
	l, err := CreateRoundLog(filepath.Join(t.TempDir(), "rounds.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	l.Observer()(testReport(7))
	out := buf.String()
	if !strings.Contains(out, "round log write failed") || !strings.Contains(out, "round=7") {
		t.Errorf("log output = %q, want a write failure for round 7", out)
	}
}
