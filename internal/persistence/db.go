// Package persistence provides SQLite-based storage of simulation results and
// a compressed JSONL round log.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/spinworld/internal/config"
	"github.com/talgya/spinworld/internal/engine"
)

// DB wraps a SQLite connection for result persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS simulations (
		id TEXT PRIMARY KEY,
		comment TEXT NOT NULL,
		seed INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		state TEXT NOT NULL,
		finished_round INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS particle_scores (
		sim_id TEXT NOT NULL,
		particle INTEGER NOT NULL,
		name TEXT NOT NULL,
		round INTEGER NOT NULL,
		g REAL NOT NULL,
		q REAL NOT NULL,
		d REAL NOT NULL,
		p REAL NOT NULL,
		r REAL NOT NULL,
		r_p REAL NOT NULL,
		r_total REAL NOT NULL,
		utility REAL NOT NULL,
		satisfaction REAL NOT NULL,
		network INTEGER NOT NULL,
		p_cheat REAL NOT NULL,
		catch_rate REAL NOT NULL,
		risk REAL NOT NULL,
		PRIMARY KEY (sim_id, particle, round)
	);

	CREATE TABLE IF NOT EXISTS network_scores (
		sim_id TEXT NOT NULL,
		network INTEGER NOT NULL,
		round INTEGER NOT NULL,
		kind TEXT NOT NULL,
		members INTEGER NOT NULL,
		longevity INTEGER NOT NULL,
		pool REAL NOT NULL,
		allocated REAL NOT NULL,
		appropriated REAL NOT NULL,
		mean_utility REAL NOT NULL,
		banned INTEGER NOT NULL,
		PRIMARY KEY (sim_id, network, round)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_particle_scores_round ON particle_scores(sim_id, round);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Simulation is a stored run.
type Simulation struct {
	ID            string `db:"id"`
	Comment       string `db:"comment"`
	Seed          int64  `db:"seed"`
	Rounds        int    `db:"rounds"`
	ParamsJSON    string `db:"params_json"`
	State         string `db:"state"`
	FinishedRound int    `db:"finished_round"`
	CreatedAt     string `db:"created_at"`
}

// ParticleScore is one particle's row for one round.
type ParticleScore struct {
	SimID        string  `db:"sim_id"`
	Particle     int64   `db:"particle"`
	Name         string  `db:"name"`
	Round        int     `db:"round"`
	G            float64 `db:"g"`
	Q            float64 `db:"q"`
	D            float64 `db:"d"`
	P            float64 `db:"p"`
	R            float64 `db:"r"`
	RP           float64 `db:"r_p"`
	RTotal       float64 `db:"r_total"`
	Utility      float64 `db:"utility"`
	Satisfaction float64 `db:"satisfaction"`
	Network      int     `db:"network"`
	PCheat       float64 `db:"p_cheat"`
	CatchRate    float64 `db:"catch_rate"`
	Risk         float64 `db:"risk"`
}

// CreateSimulation records the start of a run.
func (db *DB) CreateSimulation(id string, cfg config.Config) error {
	params, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	_, err = db.conn.Exec(`INSERT INTO simulations
		(id, comment, seed, rounds, params_json, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.Storage.Comment, cfg.Seed, cfg.Rounds, string(params), "RUNNING",
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// FinishSimulation records how a run ended.
func (db *DB) FinishSimulation(id string, round int, state string) error {
	_, err := db.conn.Exec(
		"UPDATE simulations SET state = ?, finished_round = ? WHERE id = ?",
		state, round, id,
	)
	return err
}

// GetSimulation loads a stored run.
func (db *DB) GetSimulation(id string) (Simulation, error) {
	var s Simulation
	err := db.conn.Get(&s, "SELECT * FROM simulations WHERE id = ?", id)
	return s, err
}

// SaveRound writes every particle and network row of a round report.
func (db *DB) SaveRound(rep engine.RoundReport) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO particle_scores
		(sim_id, particle, name, round, g, q, d, p, r, r_p, r_total,
		 utility, satisfaction, network, p_cheat, catch_rate, risk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range rep.Snapshots {
		if s.Dead {
			continue
		}
		_, err := stmt.Exec(rep.SimulationID, int64(s.Particle), s.Name, rep.Round,
			s.G, s.Q, s.D, s.P, s.Allocated, s.Appropriated, s.RTotal,
			s.Utility, s.Satisfaction, int(s.Network), s.PCheat, s.CatchRate, s.Risk)
		if err != nil {
			return fmt.Errorf("particle %s: %w", s.Name, err)
		}
	}

	for _, n := range rep.Networks {
		_, err := tx.Exec(`INSERT OR REPLACE INTO network_scores
			(sim_id, network, round, kind, members, longevity, pool, allocated,
			 appropriated, mean_utility, banned)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.SimulationID, int(n.ID), rep.Round, n.Kind, n.Members, n.Longevity,
			n.Pool, n.Allocated, n.Appropriated, n.MeanUtility, n.Banned,
		)
		if err != nil {
			return fmt.Errorf("network %d: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// ParticleScores returns a particle's rows in round order.
func (db *DB) ParticleScores(simID string, particle int64) ([]ParticleScore, error) {
	var rows []ParticleScore
	err := db.conn.Select(&rows,
		"SELECT * FROM particle_scores WHERE sim_id = ? AND particle = ? ORDER BY round",
		simID, particle,
	)
	return rows, err
}

// RoundCount returns how many distinct rounds have rows for a run.
func (db *DB) RoundCount(simID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(DISTINCT round) FROM particle_scores WHERE sim_id = ?", simID)
	return n, err
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// Recorder returns an observer that saves every round, logging failures
// instead of stopping the run.
func (db *DB) Recorder() engine.Observer {
	return func(rep engine.RoundReport) {
		if err := db.SaveRound(rep); err != nil {
			slog.Error("save round failed", "round", rep.Round, "error", err)
		}
	}
}
