package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"intentrouter/pkg/intent"
)

// FileStore is the reference persistence model: one JSON snapshot file,
// rewritten whole on every save. Writes serialize under a mutex; the
// format is not safe for concurrent writer processes.
type FileStore struct {
	path string
	log  *zap.Logger

	mu      sync.Mutex
	records map[string]*Record
}

// persistedRecord exists to read both the current schema and the legacy
// one where the answer lived under "answer" instead of
// "approved_answer". Migration happens once at load.
type persistedRecord struct {
	Record
	LegacyAnswer string `json:"answer,omitempty"`
}

func NewFileStore(path string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &FileStore{
		path:    path,
		log:     log.Named("memory"),
		records: map[string]*Record{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the snapshot. A missing, unreadable or corrupt file resets
// to an empty store; the next save recreates it.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.log.Warn("memory file unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	var raw map[string]*persistedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn("memory file corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	for sig, pr := range raw {
		rec := pr.Record
		if rec.ApprovedAnswer == "" && pr.LegacyAnswer != "" {
			rec.ApprovedAnswer = pr.LegacyAnswer
		}
		if rec.Signature == "" {
			rec.Signature = sig
		}
		s.records[sig] = &rec
	}
	return nil
}

func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write memory snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Get(signature string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[signature]
	if !ok {
		return nil, ErrNotFound
	}

	rec.LastUsedAt = time.Now()
	if err := s.persist(); err != nil {
		return nil, err
	}

	out := *rec
	return &out, nil
}

func (s *FileStore) Save(sig intent.Signature, answer string, generatedBy []string, judgeName string, confidence float64, autoSaved bool) error {
	if sig.Key == "" {
		return fmt.Errorf("memory: signature key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec := buildRecord(s.records[sig.Key], sig, answer, generatedBy, judgeName, confidence, autoSaved, now)
	s.records[sig.Key] = rec
	return s.persist()
}

func (s *FileStore) ListSignatures() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sigs := make([]string, 0, len(s.records))
	for sig := range s.records {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs, nil
}

func (s *FileStore) SignaturesInDomain(domain string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sigs []string
	for sig, rec := range s.records {
		if rec.Domain == domain {
			sigs = append(sigs, sig)
		}
	}
	sort.Strings(sigs)
	return sigs, nil
}

func (s *FileStore) Close() error { return nil }

// buildRecord implements the overwrite-with-archive semantics shared by
// both backends: the prior answer moves into the history log and
// CreatedAt is inherited from the existing record.
func buildRecord(existing *Record, sig intent.Signature, answer string, generatedBy []string, judgeName string, confidence float64, autoSaved bool, now time.Time) *Record {
	rec := &Record{
		Signature:      sig.Key,
		Domain:         sig.Domain,
		Task:           sig.Task,
		Object:         sig.Object,
		ApprovedAnswer: answer,
		Source: Source{
			GeneratedBy:   append([]string(nil), generatedBy...),
			Judge:         judgeName,
			HumanVerified: !autoSaved,
			AutoSaved:     autoSaved,
		},
		Confidence: confidence,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
		rec.HistoryLog = append(append([]ArchivedAnswer(nil), existing.HistoryLog...), ArchivedAnswer{
			ArchivedAt:         now,
			PreviousAnswer:     existing.ApprovedAnswer,
			PreviousConfidence: existing.Confidence,
		})
	}
	return rec
}
