package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS experiment_definitions (
	id      TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_plans (
	run_id        TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_plans_experiment ON run_plans(experiment_id);
CREATE TABLE IF NOT EXISTS reports (
	run_id  TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);`

// SQLite is a Repository backed by a SQLite database file. Rows hold the
// JSON-serialized aggregates; identifiers are extracted into columns for
// lookup. Suitable for single-instance deployments that must survive
// restarts.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at the given path
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("db path cannot be empty")
	}

	busyTimeout := 5 * time.Second
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, int(busyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) SaveDefinition(def *types.ExperimentDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return errors.Wrap(err, "failed to serialize definition")
	}
	_, err = s.db.Exec(
		`INSERT INTO experiment_definitions(id, payload) VALUES(?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		def.ID, string(payload))
	return errors.Wrap(err, "failed to save definition")
}

func (s *SQLite) FindDefinition(id string) (*types.ExperimentDefinition, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM experiment_definitions WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, cerrors.NotFound("experiment", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load definition")
	}
	def := &types.ExperimentDefinition{}
	if err := json.Unmarshal([]byte(payload), def); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize definition")
	}
	return def, nil
}

func (s *SQLite) ListDefinitions() ([]*types.ExperimentDefinition, error) {
	rows, err := s.db.Query(`SELECT payload FROM experiment_definitions`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list definitions")
	}
	defer rows.Close()

	var defs []*types.ExperimentDefinition
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan definition row")
		}
		def := &types.ExperimentDefinition{}
		if err := json.Unmarshal([]byte(payload), def); err != nil {
			return nil, errors.Wrap(err, "failed to deserialize definition")
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (s *SQLite) DeleteDefinition(id string) error {
	result, err := s.db.Exec(`DELETE FROM experiment_definitions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete definition")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return cerrors.NotFound("experiment", id)
	}
	return nil
}

func (s *SQLite) SaveRunPlan(plan *types.RunPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return errors.Wrap(err, "failed to serialize run plan")
	}
	experimentID := ""
	if plan.Definition != nil {
		experimentID = plan.Definition.ID
	}
	_, err = s.db.Exec(
		`INSERT INTO run_plans(run_id, experiment_id, payload) VALUES(?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload`,
		plan.RunID, experimentID, string(payload))
	return errors.Wrap(err, "failed to save run plan")
}

func (s *SQLite) FindRunPlan(runID string) (*types.RunPlan, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM run_plans WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, cerrors.NotFound("run", runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run plan")
	}
	plan := &types.RunPlan{}
	if err := json.Unmarshal([]byte(payload), plan); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize run plan")
	}
	return plan, nil
}

func (s *SQLite) FindRunsByExperimentID(experimentID string) ([]*types.RunPlan, error) {
	rows, err := s.db.Query(`SELECT payload FROM run_plans WHERE experiment_id = ?`, experimentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run plans")
	}
	defer rows.Close()

	var plans []*types.RunPlan
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan run plan row")
		}
		plan := &types.RunPlan{}
		if err := json.Unmarshal([]byte(payload), plan); err != nil {
			return nil, errors.Wrap(err, "failed to deserialize run plan")
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *SQLite) SaveReport(report *types.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to serialize report")
	}
	_, err = s.db.Exec(
		`INSERT INTO reports(run_id, payload) VALUES(?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload`,
		report.RunID, string(payload))
	return errors.Wrap(err, "failed to save report")
}

func (s *SQLite) FindReport(runID string) (*types.Report, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM reports WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, cerrors.NotFound("report", runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load report")
	}
	report := &types.Report{}
	if err := json.Unmarshal([]byte(payload), report); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize report")
	}
	return report, nil
}
