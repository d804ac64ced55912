// Package memory is the durable, versioned, intent-keyed answer cache.
// Records are keyed by canonical intent signature; overwriting a
// signature archives the prior answer into the record's history log.
package memory

import (
	"errors"
	"time"

	"intentrouter/pkg/intent"
)

// ErrNotFound reports a cache miss. Not a failure: callers branch into
// the semantic-fallback and generation path on it.
var ErrNotFound = errors.New("memory: signature not found")

// ArchivedAnswer is an immutable snapshot of an overwritten answer.
type ArchivedAnswer struct {
	ArchivedAt         time.Time `json:"archived_at"`
	PreviousAnswer     string    `json:"previous_answer"`
	PreviousConfidence float64   `json:"previous_confidence"`
}

// Source records where an answer came from and how much to trust it.
type Source struct {
	GeneratedBy   []string `json:"generated_by"`
	Judge         string   `json:"judge"`
	HumanVerified bool     `json:"human_verified"`
	AutoSaved     bool     `json:"auto_saved"`
}

// Record is one cached intent. CreatedAt is immutable across
// overwrites; LastUsedAt updates on every read or write.
type Record struct {
	Signature      string           `json:"intent"`
	Domain         string           `json:"domain"`
	Task           string           `json:"task"`
	Object         string           `json:"object"`
	ApprovedAnswer string           `json:"approved_answer"`
	Source         Source           `json:"source"`
	Confidence     float64          `json:"confidence"`
	CreatedAt      time.Time        `json:"created_at"`
	LastUsedAt     time.Time        `json:"last_used_at"`
	HistoryLog     []ArchivedAnswer `json:"history_log"`
}

// Store is the durable cache contract. Get has a deliberate side
// effect: a hit updates and persists LastUsedAt so recency policies can
// be layered on later. Save must be immediately visible to a subsequent
// Get and survive a restart.
type Store interface {
	Get(signature string) (*Record, error)
	Save(sig intent.Signature, answer string, generatedBy []string, judgeName string, confidence float64, autoSaved bool) error
	ListSignatures() ([]string, error)
	SignaturesInDomain(domain string) ([]string, error)
	Close() error
}
