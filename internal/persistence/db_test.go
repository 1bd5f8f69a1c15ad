package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/config"
	"github.com/talgya/spinworld/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testReport(round int) engine.RoundReport {
	return engine.RoundReport{
		SimulationID: "sim-1",
		Round:        round,
		Snapshots: []agents.Snapshot{
			{Particle: 1, Name: "c0", G: 0.5, Q: 0.4, D: 0.4, P: 0.5, Allocated: 0.4, Appropriated: 0.4,
				RTotal: 0.4, Utility: 1.1 * float64(round), Satisfaction: 0.6, Network: 0, PCheat: 0.05},
			{Particle: 2, Name: "nc0", Network: agents.NoNetwork, Dead: true},
		},
		Networks: []engine.NetworkReport{
			{ID: 0, Kind: "LENIENT", Members: 1, Longevity: round, Pool: 0.5, Allocated: 0.4,
				Appropriated: 0.4, MeanUtility: 1.1},
		},
	}
}

func TestSimulationLifecycle(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Default()
	cfg.Storage.Comment = "baseline"

	if err := db.CreateSimulation("sim-1", cfg); err != nil {
		t.Fatalf("CreateSimulation: %v", err)
	}
	if err := db.FinishSimulation("sim-1", 42, "FINISHED"); err != nil {
		t.Fatalf("FinishSimulation: %v", err)
	}

	s, err := db.GetSimulation("sim-1")
	if err != nil {
		t.Fatalf("GetSimulation: %v", err)
	}
	if s.Comment != "baseline" || s.Seed != cfg.Seed || s.Rounds != cfg.Rounds {
		t.Errorf("stored simulation = %+v", s)
	}
	if s.State != "FINISHED" || s.FinishedRound != 42 {
		t.Errorf("state = %s at %d, want FINISHED at 42", s.State, s.FinishedRound)
	}
	if s.ParamsJSON == "" {
		t.Error("params not stored")
	}
}

func TestSaveRoundSkipsDeadParticles(t *testing.T) {
	db := openTestDB(t)
	for round := 1; round <= 3; round++ {
		if err := db.SaveRound(testReport(round)); err != nil {
			t.Fatalf("SaveRound(%d): %v", round, err)
		}
	}

	n, err := db.RoundCount("sim-1")
	if err != nil {
		t.Fatalf("RoundCount: %v", err)
	}
	if n != 3 {
		t.Errorf("RoundCount = %d, want 3", n)
	}

	rows, err := db.ParticleScores("sim-1", 1)
	if err != nil {
		t.Fatalf("ParticleScores: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Round != i+1 {
			t.Errorf("row %d round = %d", i, r.Round)
		}
		if r.Name != "c0" || r.RP != 0.4 {
			t.Errorf("row %d = %+v", i, r)
		}
	}

	dead, err := db.ParticleScores("sim-1", 2)
	if err != nil {
		t.Fatalf("ParticleScores: %v", err)
	}
	if len(dead) != 0 {
		t.Errorf("dead particle rows = %d, want 0", len(dead))
	}
}

func TestSaveRoundIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	rep := testReport(1)
	if err := db.SaveRound(rep); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveRound(rep); err != nil {
		t.Fatalf("second SaveRound: %v", err)
	}
	rows, _ := db.ParticleScores("sim-1", 1)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want 1", len(rows))
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("last_sim", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("last_sim", "b"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("last_sim")
	if err != nil {
		t.Fatal(err)
	}
	if v != "b" {
		t.Errorf("GetMeta = %q, want b", v)
	}
	if _, err := db.GetMeta("missing"); err == nil {
		t.Error("expected error for missing key")
	}
}
