// Package history records finished seminar sessions in a SQLite database so
// past roundtables can be listed and replayed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"actcli/internal/seminar"
	"actcli/internal/transcript"
)

const FileName = "history.db"

// Fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrNotFound = errors.New("session not found")

// ErrAmbiguous is returned when an id prefix matches more than one session.
var ErrAmbiguous = errors.New("session id prefix is ambiguous")

// Summary is one row of `history list`.
type Summary struct {
	ID           string
	StartedAt    time.Time
	Prompt       string
	Rounds       int
	Participants int
	OKCount      int
	Disagreement *float64
}

// Session is a stored session with its full report.
type Session struct {
	ID     string
	Report seminar.SessionReport
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// DefaultPath is <outputDir>/history.db.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, FileName)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    ended_at TEXT NOT NULL,
    prompt TEXT NOT NULL,
    prompt_hash TEXT NOT NULL,
    rounds INTEGER NOT NULL,
    participants INTEGER NOT NULL,
    ok_count INTEGER NOT NULL,
    agreement TEXT,
    disagreement REAL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
CREATE TABLE IF NOT EXISTS turns (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    round INTEGER NOT NULL,
    position INTEGER NOT NULL,
    adapter_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    local INTEGER NOT NULL,
    version TEXT NOT NULL,
    latency_ms INTEGER NOT NULL,
    text TEXT NOT NULL,
    error_kind TEXT,
    error TEXT,
    PRIMARY KEY (session_id, round, position)
);
`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores rep and returns its new id.
func (s *Store) Save(ctx context.Context, rep seminar.SessionReport) (string, error) {
	id := uuid.NewString()
	final := rep.Final()
	ok := 0
	for _, r := range final {
		if r.OK() {
			ok++
		}
	}
	var agreement sql.NullString
	var disagreement sql.NullFloat64
	if rep.Synthesis != nil {
		agreement = sql.NullString{String: rep.Synthesis.AgreementSummary, Valid: true}
		disagreement = sql.NullFloat64{Float64: rep.Synthesis.DisagreementScore, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, ended_at, prompt, prompt_hash, rounds, participants, ok_count, agreement, disagreement)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, formatTime(rep.StartedAt), formatTime(rep.EndedAt), rep.Prompt, transcript.PromptHash(rep.Prompt),
		len(rep.Rounds), len(final), ok, agreement, disagreement)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO turns (session_id, round, position, adapter_id, display_name, local, version, latency_ms, text, error_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare turn insert: %w", err)
	}
	defer stmt.Close()
	for ri, round := range rep.Rounds {
		for pi, r := range round {
			var kind, msg sql.NullString
			if r.Err != nil {
				kind = sql.NullString{String: string(r.Err.Kind), Valid: true}
				msg = sql.NullString{String: r.Err.Message, Valid: true}
			}
			d := r.Descriptor
			if _, err := stmt.ExecContext(ctx, id, ri+1, pi, d.ID, d.DisplayName, boolToInt(d.IsLocal), d.ModelVersion,
				r.LatencyMS(), r.Text, kind, msg); err != nil {
				return "", fmt.Errorf("insert turn: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// List returns the newest sessions first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	q := `SELECT id, started_at, prompt, rounds, participants, ok_count, disagreement
		FROM sessions ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var started string
		var disagreement sql.NullFloat64
		if err := rows.Scan(&sm.ID, &started, &sm.Prompt, &sm.Rounds, &sm.Participants, &sm.OKCount, &disagreement); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sm.StartedAt = parseTime(started)
		if disagreement.Valid {
			v := disagreement.Float64
			sm.Disagreement = &v
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Get loads a session by id or unique id prefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Session, error) {
	id, err := s.resolveID(ctx, strings.TrimSpace(idOrPrefix))
	if err != nil {
		return nil, err
	}

	var started, ended string
	var nRounds int
	var agreement sql.NullString
	var disagreement sql.NullFloat64
	sess := &Session{ID: id}
	err = s.db.QueryRowContext(ctx, `
		SELECT started_at, ended_at, prompt, rounds, agreement, disagreement FROM sessions WHERE id = ?
	`, id).Scan(&started, &ended, &sess.Report.Prompt, &nRounds, &agreement, &disagreement)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	sess.Report.StartedAt = parseTime(started)
	sess.Report.EndedAt = parseTime(ended)
	if agreement.Valid {
		sess.Report.Synthesis = &seminar.SynthesisOutcome{AgreementSummary: agreement.String, DisagreementScore: disagreement.Float64}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT round, adapter_id, display_name, local, version, latency_ms, text, error_kind, error
		FROM turns WHERE session_id = ? ORDER BY round, position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			round, local int
			latency      int64
			r            seminar.TurnResult
			kind, msg    sql.NullString
		)
		if err := rows.Scan(&round, &r.Descriptor.ID, &r.Descriptor.DisplayName, &local, &r.Descriptor.ModelVersion,
			&latency, &r.Text, &kind, &msg); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		r.Descriptor.IsLocal = local == 1
		r.Latency = time.Duration(latency) * time.Millisecond
		if kind.Valid {
			r.Err = &seminar.TurnError{Kind: seminar.ErrorKind(kind.String), Message: msg.String}
		}
		for len(sess.Report.Rounds) < round {
			sess.Report.Rounds = append(sess.Report.Rounds, nil)
		}
		sess.Report.Rounds[round-1] = append(sess.Report.Rounds[round-1], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	for len(sess.Report.Rounds) < nRounds {
		sess.Report.Rounds = append(sess.Report.Rounds, nil)
	}
	return sess, nil
}

func (s *Store) resolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("query session ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
	}
}

// Delete removes a session and its turns.
func (s *Store) Delete(ctx context.Context, idOrPrefix string) error {
	id, err := s.resolveID(ctx, strings.TrimSpace(idOrPrefix))
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
