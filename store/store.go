// (c) Copyright gosec's authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store optionally persists a run's diagnoses to Postgres for
// longitudinal tracking across CI runs. Like package explain, this is a
// pluggable sink attached after the engine has already produced its
// (correct, complete) diagnoses — a Driver run with no store configured
// behaves identically aside from not writing anywhere.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/google/uuid"

	"github.com/taintcheck/ffianalyzer/diagnosis"
)

const schema = `
CREATE TABLE IF NOT EXISTS ffianalyzer_diagnoses (
	run_id        uuid NOT NULL,
	function_name text NOT NULL,
	severity      text NOT NULL,
	bug_kinds     text NOT NULL,
	ffi_known     boolean NOT NULL,
	message       text NOT NULL,
	PRIMARY KEY (run_id, function_name)
)`

// PostgresStore persists diagnoses keyed by run ID.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to a Postgres database with dsn (a "postgres://" URL or a
// libpq keyword/value string, per lib/pq's conventions) and ensures the
// backing table exists.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ffianalyzer_diagnoses table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveRun upserts every diagnosis produced by runID, replacing whatever
// was previously stored for that run and function.
func (s *PostgresStore) SaveRun(ctx context.Context, runID uuid.UUID, ds []diagnosis.Diagnosis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ffianalyzer_diagnoses (run_id, function_name, severity, bug_kinds, ffi_known, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, function_name) DO UPDATE SET
			severity = EXCLUDED.severity,
			bug_kinds = EXCLUDED.bug_kinds,
			ffi_known = EXCLUDED.ffi_known,
			message = EXCLUDED.message`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range ds {
		kinds := make([]string, len(d.Bugs))
		for i, k := range d.Bugs {
			kinds[i] = k.String()
		}
		if _, err := stmt.ExecContext(ctx, runID, d.FunctionName, d.Severity.String(), strings.Join(kinds, ","), d.FFIKnown, d.Message); err != nil {
			return fmt.Errorf("insert diagnosis for %q: %w", d.FunctionName, err)
		}
	}
	return tx.Commit()
}

// LoadRun retrieves every diagnosis previously saved under runID. Bug
// kinds are not reconstructed (the store is for tracking, not replay), so
// returned diagnoses carry the stored severity and message but an empty
// Bugs slice; callers that need structured bug kinds should parse the
// comma-joined names themselves if required.
func (s *PostgresStore) LoadRun(ctx context.Context, runID uuid.UUID) ([]diagnosis.Diagnosis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT function_name, severity, ffi_known, message
		FROM ffianalyzer_diagnoses WHERE run_id = $1
		ORDER BY function_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []diagnosis.Diagnosis
	for rows.Next() {
		var functionName, severityName, message string
		var ffiKnown bool
		if err := rows.Scan(&functionName, &severityName, &ffiKnown, &message); err != nil {
			return nil, fmt.Errorf("scan diagnosis row: %w", err)
		}
		out = append(out, diagnosis.New(ffiKnown, nil, message, parseSeverity(severityName), functionName))
	}
	return out, rows.Err()
}

func parseSeverity(name string) diagnosis.Severity {
	switch name {
	case "High":
		return diagnosis.High
	case "Medium":
		return diagnosis.Medium
	default:
		return diagnosis.Low
	}
}
