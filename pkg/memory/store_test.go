package memory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"intentrouter/pkg/intent"
)

func sachinSig() intent.Signature {
	return intent.Signature{
		Domain: "sports",
		Task:   "explanation",
		Object: "sachin_tendulkar",
		Key:    "sports|explanation|sachin_tendulkar",
	}
}

// openStores builds one of each backend so every contract test runs
// against both.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "memory.json"), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "memory.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = fileStore.Close()
		_ = sqliteStore.Close()
	})
	return map[string]Store{"file": fileStore, "sqlite": sqliteStore}
}

func TestStore_MissIsErrNotFound(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get("nope|nope|nope"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_SaveThenGet(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sig := sachinSig()
			if err := store.Save(sig, "A cricketer.", []string{"gemini", "groq"}, "gemini_judge", 0.95, false); err != nil {
				t.Fatalf("save: %v", err)
			}

			rec, err := store.Get(sig.Key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if rec.ApprovedAnswer != "A cricketer." {
				t.Errorf("answer = %q", rec.ApprovedAnswer)
			}
			if !rec.Source.HumanVerified || rec.Source.AutoSaved {
				t.Errorf("verified save flags wrong: %#v", rec.Source)
			}
			if rec.Confidence != 0.95 {
				t.Errorf("confidence = %v", rec.Confidence)
			}
			if len(rec.Source.GeneratedBy) != 2 {
				t.Errorf("generated_by = %v", rec.Source.GeneratedBy)
			}
			if rec.Source.Judge != "gemini_judge" {
				t.Errorf("judge = %q", rec.Source.Judge)
			}
		})
	}
}

func TestStore_OverwriteArchivesPreviousAnswer(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sig := sachinSig()
			if err := store.Save(sig, "answer A", []string{"gemini"}, "gemini_judge", 0.95, false); err != nil {
				t.Fatalf("first save: %v", err)
			}
			first, err := store.Get(sig.Key)
			if err != nil {
				t.Fatalf("get after first save: %v", err)
			}

			if err := store.Save(sig, "answer B", []string{"groq"}, "gemini_judge", 0.85, true); err != nil {
				t.Fatalf("second save: %v", err)
			}
			rec, err := store.Get(sig.Key)
			if err != nil {
				t.Fatalf("get after second save: %v", err)
			}

			if rec.ApprovedAnswer != "answer B" {
				t.Errorf("answer = %q", rec.ApprovedAnswer)
			}
			if len(rec.HistoryLog) != 1 {
				t.Fatalf("history_log length = %d, want 1", len(rec.HistoryLog))
			}
			if rec.HistoryLog[0].PreviousAnswer != "answer A" {
				t.Errorf("archived answer = %q", rec.HistoryLog[0].PreviousAnswer)
			}
			if rec.HistoryLog[0].PreviousConfidence != 0.95 {
				t.Errorf("archived confidence = %v", rec.HistoryLog[0].PreviousConfidence)
			}
			if !rec.CreatedAt.Equal(first.CreatedAt) {
				t.Errorf("created_at changed on overwrite: %v -> %v", first.CreatedAt, rec.CreatedAt)
			}
			if rec.LastUsedAt.Before(first.LastUsedAt) {
				t.Errorf("last_used_at did not advance")
			}
			// Auto-save implies unverified.
			if rec.Source.HumanVerified || !rec.Source.AutoSaved {
				t.Errorf("auto-save flags wrong: %#v", rec.Source)
			}
		})
	}
}

func TestStore_GetTouchesLastUsedAt(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sig := sachinSig()
			if err := store.Save(sig, "x", nil, "j", 0.9, false); err != nil {
				t.Fatalf("save: %v", err)
			}
			first, err := store.Get(sig.Key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			time.Sleep(5 * time.Millisecond)
			second, err := store.Get(sig.Key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !second.LastUsedAt.After(first.LastUsedAt) {
				t.Errorf("read should advance last_used_at: %v -> %v", first.LastUsedAt, second.LastUsedAt)
			}
		})
	}
}

func TestStore_DomainQueries(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sigs := []intent.Signature{
				{Domain: "sports", Task: "explanation", Object: "kohli", Key: "sports|explanation|kohli"},
				{Domain: "sports", Task: "ranking", Object: "playing_11", Key: "sports|ranking|playing_11"},
				{Domain: "programming", Task: "code_generation", Object: "bubblesort", Key: "programming|code_generation|bubblesort"},
			}
			for _, sig := range sigs {
				if err := store.Save(sig, "a", nil, "j", 0.9, false); err != nil {
					t.Fatalf("save %s: %v", sig.Key, err)
				}
			}

			all, err := store.ListSignatures()
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("expected 3 signatures, got %v", all)
			}

			sports, err := store.SignaturesInDomain("sports")
			if err != nil {
				t.Fatalf("domain query: %v", err)
			}
			if len(sports) != 2 {
				t.Errorf("expected 2 sports signatures, got %v", sports)
			}
		})
	}
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")

	store, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(sachinSig(), "persisted", []string{"gemini"}, "gemini_judge", 0.95, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, err := reopened.Get(sachinSig().Key)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if rec.ApprovedAnswer != "persisted" {
		t.Errorf("answer lost across restart: %q", rec.ApprovedAnswer)
	}
}

func TestSQLiteStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(sachinSig(), "persisted", []string{"gemini"}, "gemini_judge", 0.95, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rec, err := reopened.Get(sachinSig().Key)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if rec.ApprovedAnswer != "persisted" {
		t.Errorf("answer lost across restart: %q", rec.ApprovedAnswer)
	}
}

func TestFileStore_CorruptFileResetsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("corrupt file must not fail open: %v", err)
	}
	sigs, err := store.ListSignatures()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sigs) != 0 {
		t.Errorf("corrupt file should load as empty store, got %v", sigs)
	}

	// Subsequent saves recreate the file.
	if err := store.Save(sachinSig(), "fresh", nil, "j", 0.9, false); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}

func TestFileStore_MigratesLegacyAnswerField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")
	legacy := `{"sports|explanation|sachin_tendulkar": {
		"intent": "sports|explanation|sachin_tendulkar",
		"domain": "sports",
		"answer": "legacy answer text",
		"confidence": 0.9
	}}`
	if err := os.WriteFile(path, []byte(legacy), 0600); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	store, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("open legacy store: %v", err)
	}
	rec, err := store.Get("sports|explanation|sachin_tendulkar")
	if err != nil {
		t.Fatalf("get migrated record: %v", err)
	}
	if rec.ApprovedAnswer != "legacy answer text" {
		t.Errorf("legacy answer not migrated, got %q", rec.ApprovedAnswer)
	}
}
