//Package resultStore persists the outcomes of evaluated cases in a SQLite database
package resultStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"lrcSuite/evaluator"
	"lrcSuite/experiment"

	_ "modernc.org/sqlite" // driver: sqlite
)

const schema = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  model TEXT NOT NULL,
  policy TEXT NOT NULL,
  scenario INTEGER NOT NULL,
  run_time REAL NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  value REAL NOT NULL,
  PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS array_outcomes (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  values_json TEXT NOT NULL,
  PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS inputs (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  value REAL NOT NULL,
  PRIMARY KEY (run_id, name)
);
`

//Store implements evaluator.Sink
type Store struct {
	db *sql.DB
}

//Outcome is one stored scalar outcome together with the case it belongs to
type Outcome struct {
	RunID    string
	Model    string
	Policy   string
	Scenario int
	Value    float64
}

//Open opens or creates the database file at path and ensures the schema exists
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%v?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open result db : %w", err)
	}
	//workers save concurrently, sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to result db : %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema : %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

//Save stores r in a single transaction. Scalar inputs of the case are stored alongside the outcomes
func (s *Store) Save(ctx context.Context, r evaluator.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction : %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	runID := r.Case.ID.String()
	finished := r.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, model, policy, scenario, run_time, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, r.Case.Model, r.Case.Policy, r.Case.Scenario, r.RunTime.Seconds(), finished.Unix()); err != nil {
		return fmt.Errorf("failed to insert run %v : %w", runID, err)
	}

	for _, name := range sortedKeys(r.Scalars) {
		if _, err = tx.ExecContext(ctx, `INSERT INTO outcomes (run_id, name, value) VALUES (?, ?, ?)`,
			runID, name, r.Scalars[name]); err != nil {
			return fmt.Errorf("failed to insert outcome %q : %w", name, err)
		}
	}
	for _, name := range sortedKeys(r.Arrays) {
		encoded, jsonErr := json.Marshal(experiment.NullableFloats(r.Arrays[name]))
		if jsonErr != nil {
			err = jsonErr
			return fmt.Errorf("failed to encode outcome %q : %w", name, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO array_outcomes (run_id, name, values_json) VALUES (?, ?, ?)`,
			runID, name, string(encoded)); err != nil {
			return fmt.Errorf("failed to insert outcome %q : %w", name, err)
		}
	}
	if r.Case.Experiment != nil {
		for _, name := range r.Case.Experiment.Keys() {
			v, _ := r.Case.Experiment.Get(name)
			x, ok := v.Float()
			if !ok {
				if x, ok = truthValue(v.Truth()); !ok {
					continue
				}
			}
			if _, err = tx.ExecContext(ctx, `INSERT INTO inputs (run_id, name, value) VALUES (?, ?, ?)`,
				runID, name, x); err != nil {
				return fmt.Errorf("failed to insert input %q : %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %v : %w", runID, err)
	}
	return nil
}

//Outcomes returns all stored values of the scalar outcome name ordered by model, policy and scenario
func (s *Store) Outcomes(ctx context.Context, name string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.model, r.policy, r.scenario, o.value
FROM outcomes o JOIN runs r ON r.id = o.run_id
WHERE o.name = ?
ORDER BY r.model, r.policy, r.scenario`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome %q : %w", name, err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Model, &o.Policy, &o.Scenario, &o.Value); err != nil {
			return nil, fmt.Errorf("failed to scan outcome : %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

//ArrayOutcome returns the stored array outcome name of run runID. NaN values are returned as NaN
func (s *Store) ArrayOutcome(ctx context.Context, runID, name string) ([]float64, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT values_json FROM array_outcomes WHERE run_id = ? AND name = ?`,
		runID, name).Scan(&encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome %q of run %v : %w", name, runID, err)
	}
	var values []*float64
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, fmt.Errorf("failed to decode outcome %q : %w", name, err)
	}
	return experiment.NaNFloats(values), nil
}

//RunCount returns the number of stored runs
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs : %w", err)
	}
	return n, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truthValue(on, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	if on {
		return 1, true
	}
	return 0, true
}
