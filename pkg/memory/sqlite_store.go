package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"intentrouter/pkg/intent"
)

// SQLiteStore is the durable backend for deployments that outgrow the
// snapshot file: one row per signature plus an archive table for the
// history log.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-writer store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS intents (
			signature TEXT PRIMARY KEY,
			domain TEXT NOT NULL DEFAULT '',
			task TEXT NOT NULL DEFAULT '',
			object TEXT NOT NULL DEFAULT '',
			approved_answer TEXT NOT NULL,
			generated_by TEXT NOT NULL DEFAULT '[]',
			judge TEXT NOT NULL DEFAULT '',
			human_verified INTEGER NOT NULL DEFAULT 0,
			auto_saved INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL,
			last_used_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS intents_domain_idx ON intents(domain);`,
		`CREATE TABLE IF NOT EXISTS intent_archives (
			id TEXT PRIMARY KEY,
			signature TEXT NOT NULL,
			archived_at_ms INTEGER NOT NULL,
			previous_answer TEXT NOT NULL,
			previous_confidence REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS intent_archives_sig_idx ON intent_archives(signature, archived_at_ms);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init memory schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(signature string) (*Record, error) {
	row := s.db.QueryRow(`SELECT signature, domain, task, object, approved_answer, generated_by, judge,
		human_verified, auto_saved, confidence, created_at_ms, last_used_at_ms
		FROM intents WHERE signature = ?`, signature)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.db.Exec(`UPDATE intents SET last_used_at_ms = ? WHERE signature = ?`, now.UnixMilli(), signature); err != nil {
		return nil, fmt.Errorf("touch last_used_at: %w", err)
	}
	rec.LastUsedAt = now

	if rec.HistoryLog, err = s.loadArchives(signature); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) Save(sig intent.Signature, answer string, generatedBy []string, judgeName string, confidence float64, autoSaved bool) error {
	if sig.Key == "" {
		return fmt.Errorf("memory: signature key is required")
	}

	now := time.Now()
	createdAt := now

	row := s.db.QueryRow(`SELECT approved_answer, confidence, created_at_ms FROM intents WHERE signature = ?`, sig.Key)
	var prevAnswer string
	var prevConfidence float64
	var createdAtMS int64
	switch err := row.Scan(&prevAnswer, &prevConfidence, &createdAtMS); {
	case err == nil:
		createdAt = time.UnixMilli(createdAtMS)
		if _, err := s.db.Exec(`INSERT INTO intent_archives (id, signature, archived_at_ms, previous_answer, previous_confidence)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), sig.Key, now.UnixMilli(), prevAnswer, prevConfidence); err != nil {
			return fmt.Errorf("archive previous answer: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("read existing record: %w", err)
	}

	generatedJSON, err := json.Marshal(generatedBy)
	if err != nil {
		return fmt.Errorf("encode generated_by: %w", err)
	}

	if _, err := s.db.Exec(`INSERT INTO intents
		(signature, domain, task, object, approved_answer, generated_by, judge, human_verified, auto_saved, confidence, created_at_ms, last_used_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			domain = excluded.domain,
			task = excluded.task,
			object = excluded.object,
			approved_answer = excluded.approved_answer,
			generated_by = excluded.generated_by,
			judge = excluded.judge,
			human_verified = excluded.human_verified,
			auto_saved = excluded.auto_saved,
			confidence = excluded.confidence,
			last_used_at_ms = excluded.last_used_at_ms`,
		sig.Key, sig.Domain, sig.Task, sig.Object, answer, string(generatedJSON), judgeName,
		boolToInt(!autoSaved), boolToInt(autoSaved), confidence, createdAt.UnixMilli(), now.UnixMilli()); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSignatures() ([]string, error) {
	return s.querySignatures(`SELECT signature FROM intents ORDER BY signature`)
}

func (s *SQLiteStore) SignaturesInDomain(domain string) ([]string, error) {
	return s.querySignatures(`SELECT signature FROM intents WHERE domain = ? ORDER BY signature`, domain)
}

func (s *SQLiteStore) querySignatures(query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	var sigs []string
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

func (s *SQLiteStore) loadArchives(signature string) ([]ArchivedAnswer, error) {
	rows, err := s.db.Query(`SELECT archived_at_ms, previous_answer, previous_confidence
		FROM intent_archives WHERE signature = ? ORDER BY archived_at_ms`, signature)
	if err != nil {
		return nil, fmt.Errorf("load archives: %w", err)
	}
	defer rows.Close()

	var log []ArchivedAnswer
	for rows.Next() {
		var archivedAtMS int64
		var entry ArchivedAnswer
		if err := rows.Scan(&archivedAtMS, &entry.PreviousAnswer, &entry.PreviousConfidence); err != nil {
			return nil, err
		}
		entry.ArchivedAt = time.UnixMilli(archivedAtMS)
		log = append(log, entry)
	}
	return log, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var generatedJSON string
	var humanVerified, autoSaved int
	var createdAtMS, lastUsedAtMS int64

	if err := row.Scan(&rec.Signature, &rec.Domain, &rec.Task, &rec.Object, &rec.ApprovedAnswer,
		&generatedJSON, &rec.Source.Judge, &humanVerified, &autoSaved, &rec.Confidence,
		&createdAtMS, &lastUsedAtMS); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(generatedJSON), &rec.Source.GeneratedBy); err != nil {
		rec.Source.GeneratedBy = nil
	}
	rec.Source.HumanVerified = humanVerified != 0
	rec.Source.AutoSaved = autoSaved != 0
	rec.CreatedAt = time.UnixMilli(createdAtMS)
	rec.LastUsedAt = time.UnixMilli(lastUsedAtMS)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
