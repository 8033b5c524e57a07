// Package store provides SQLite persistence for generated problems and
// their evaluations.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/ltlbench/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a problem id has no row
var ErrNotFound = errors.New("not found")

// Store handles SQLite persistence.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath, creating the parent directory and tables
// as needed. ":memory:" opens a shared in-memory database that lives until
// Close.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one connection keeps the in-memory database alive and shared
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		events INTEGER NOT NULL,
		formula_length INTEGER NOT NULL,
		initial_state TEXT NOT NULL,
		context TEXT NOT NULL,
		claims TEXT NOT NULL,
		question TEXT NOT NULL,
		code TEXT NOT NULL,
		formula TEXT NOT NULL,
		graph TEXT NOT NULL,
		answer INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (seed, idx, events, formula_length)
	);

	CREATE INDEX IF NOT EXISTS idx_problems_shape ON problems(events, formula_length);

	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		problem_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		strategy TEXT NOT NULL,
		response TEXT NOT NULL,
		prediction INTEGER,
		answer INTEGER NOT NULL,
		error TEXT,
		tokens_used INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (problem_id) REFERENCES problems(id)
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_problem ON evaluations(problem_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(provider, model, strategy);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveProblems stores problems and fills in their ids, returning the count
// of new rows. A problem already stored under the same seed, index and
// shape keeps its existing row.
func (s *Store) SaveProblems(problems []*model.Problem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(problems) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	insert, err := tx.Prepare(`
		INSERT OR IGNORE INTO problems (
			seed, idx, events, formula_length, initial_state, context, claims,
			question, code, formula, graph, answer, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer insert.Close()

	lookup, err := tx.Prepare(`
		SELECT id FROM problems
		WHERE seed = ? AND idx = ? AND events = ? AND formula_length = ?
	`)
	if err != nil {
		return 0, err
	}
	defer lookup.Close()

	newCount := 0
	for _, p := range problems {
		claims, err := json.Marshal(p.Claims)
		if err != nil {
			return 0, fmt.Errorf("encode claims: %w", err)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}

		result, err := insert.Exec(
			int64(p.Seed),
			int64(p.Index),
			p.Events,
			p.FormulaLength,
			p.InitialState,
			p.Context,
			string(claims),
			p.Question,
			p.Code,
			p.Formula,
			p.Graph,
			boolToInt(p.Answer),
			p.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert problem %d: %w", p.Index, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			newCount++
			if p.ID, err = result.LastInsertId(); err != nil {
				return 0, err
			}
			continue
		}

		if err := lookup.QueryRow(int64(p.Seed), int64(p.Index), p.Events, p.FormulaLength).Scan(&p.ID); err != nil {
			return 0, fmt.Errorf("lookup problem %d: %w", p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// GetProblem returns the problem with the given id
func (s *Store) GetProblem(id int64) (*model.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	problems, err := s.queryProblems(problemColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("problem %d: %w", id, ErrNotFound)
	}
	return problems[0], nil
}

// ProblemFilter narrows ListProblems. Zero fields match everything
type ProblemFilter struct {
	Events        int
	FormulaLength int
	Limit         int
}

// ListProblems returns stored problems ordered by id
func (s *Store) ListProblems(filter ProblemFilter) ([]*model.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := problemColumns + " WHERE 1 = 1"
	var args []any
	if filter.Events > 0 {
		query += " AND events = ?"
		args = append(args, filter.Events)
	}
	if filter.FormulaLength > 0 {
		query += " AND formula_length = ?"
		args = append(args, filter.FormulaLength)
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryProblems(query, args...)
}

// CountProblems returns the number of stored problems
func (s *Store) CountProblems() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM problems").Scan(&n)
	return n, err
}

const problemColumns = `
	SELECT id, seed, idx, events, formula_length, initial_state, context, claims,
		question, code, formula, graph, answer, created_at
	FROM problems`

// queryProblems runs a problem query. Caller must hold s.mu
func (s *Store) queryProblems(query string, args ...any) ([]*model.Problem, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []*model.Problem
	for rows.Next() {
		var (
			p           model.Problem
			seed, index int64
			claims      string
			answer      int
		)
		err := rows.Scan(
			&p.ID,
			&seed,
			&index,
			&p.Events,
			&p.FormulaLength,
			&p.InitialState,
			&p.Context,
			&claims,
			&p.Question,
			&p.Code,
			&p.Formula,
			&p.Graph,
			&answer,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(claims), &p.Claims); err != nil {
			return nil, fmt.Errorf("decode claims of problem %d: %w", p.ID, err)
		}
		p.Seed = uint64(seed)
		p.Index = uint64(index)
		p.Answer = answer != 0
		problems = append(problems, &p)
	}

	return problems, rows.Err()
}

// SaveEvaluation stores an evaluation and fills in its id
func (s *Store) SaveEvaluation(e *model.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var prediction sql.NullInt64
	if e.Prediction != nil {
		prediction = sql.NullInt64{Int64: int64(boolToInt(*e.Prediction)), Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO evaluations (
			problem_id, provider, model, strategy, response, prediction,
			answer, error, tokens_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ProblemID,
		e.Provider,
		e.Model,
		e.Strategy,
		e.Response,
		prediction,
		boolToInt(e.Answer),
		e.Error,
		e.TokensUsed,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}

	e.ID, err = result.LastInsertId()
	return err
}

// EvaluationFilter narrows ListEvaluations. Empty fields match everything
type EvaluationFilter struct {
	ProblemID int64
	Provider  string
	Model     string
	Strategy  string
}

// ListEvaluations returns evaluations ordered by id
func (s *Store) ListEvaluations(filter EvaluationFilter) ([]model.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, problem_id, provider, model, strategy, response, prediction,
			answer, error, tokens_used, created_at
		FROM evaluations
		WHERE 1 = 1`
	var args []any
	if filter.ProblemID > 0 {
		query += " AND problem_id = ?"
		args = append(args, filter.ProblemID)
	}
	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var (
			e          model.Evaluation
			prediction sql.NullInt64
			answer     int
			errText    sql.NullString
		)
		err := rows.Scan(
			&e.ID,
			&e.ProblemID,
			&e.Provider,
			&e.Model,
			&e.Strategy,
			&e.Response,
			&prediction,
			&answer,
			&errText,
			&e.TokensUsed,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if prediction.Valid {
			v := prediction.Int64 != 0
			e.Prediction = &v
		}
		e.Answer = answer != 0
		e.Error = errText.String
		evals = append(evals, e)
	}

	return evals, rows.Err()
}

// EvaluatedProblems returns the ids of problems that already have an
// evaluation for the given provider, model and strategy
func (s *Store) EvaluatedProblems(provider, modelName, strategy string) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT problem_id FROM evaluations
		WHERE provider = ? AND model = ? AND strategy = ?
	`, provider, modelName, strategy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
