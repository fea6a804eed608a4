// Package assignment maintains the durable participant -> variant
// mapping for the study. The ledger lives as a two-column CSV on the
// remote store with a write-through local copy. There is no locking
// across app instances: two participants getting their first variant
// at the same moment can both read the pre-update ledger and the
// second upload wins whole-file. That best-effort behavior is the
// documented consistency model at study scale; it is not upgraded
// here.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mkosmas1/LLM-Alignment/internal/blobstore"
)

const csvMimeType = "text/csv"

// Assignment is one ledger row.
type Assignment struct {
	UserID  string
	Variant string
}

// Ledger balances participants across the configured variants using
// least-assigned-count with a uniform random tie-break.
type Ledger struct {
	mu        sync.Mutex
	remote    blobstore.Store
	fileName  string
	localPath string
	variants  []string
	rng       *rand.Rand
}

func NewLedger(remote blobstore.Store, localPath string, variants []string) (*Ledger, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &Ledger{
		remote:    remote,
		fileName:  filepath.Base(localPath),
		localPath: localPath,
		variants:  append([]string{}, variants...),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetRand replaces the tie-break randomness source.
func (l *Ledger) SetRand(r *rand.Rand) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng = r
}

// GetOrAssign returns the participant's variant, assigning one if the
// ledger has no row for them yet. Idempotent: an existing row is
// returned without any write. Load failures degrade to an empty
// ledger; upload failures keep the locally-decided assignment valid.
func (l *Ledger) GetOrAssign(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("empty participant id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows := l.load(ctx)
	for _, a := range rows {
		if a.UserID == userID {
			return a.Variant, nil
		}
	}

	variant := l.pickLeastAssigned(rows)
	rows = append(rows, Assignment{UserID: userID, Variant: variant})
	l.save(ctx, rows)
	return variant, nil
}

// LoadAll returns the current durable ledger content, falling back to
// empty on any load failure.
func (l *Ledger) LoadAll(ctx context.Context) []Assignment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Ledger) load(ctx context.Context) []Assignment {
	data, err := l.remote.Get(ctx, l.fileName)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			log.Printf("failed to load assignments %q, starting empty: %v", l.fileName, err)
		}
		return nil
	}
	rows, err := parseCSV(data)
	if err != nil {
		log.Printf("corrupt assignments %q, starting empty: %v", l.fileName, err)
		return nil
	}
	return rows
}

func (l *Ledger) pickLeastAssigned(rows []Assignment) string {
	counts := make(map[string]int, len(l.variants))
	for _, v := range l.variants {
		counts[v] = 0
	}
	for _, a := range rows {
		// Rows outside the configured enumeration (stale arms from a
		// previous study wave) do not influence balancing.
		if _, ok := counts[a.Variant]; ok {
			counts[a.Variant]++
		}
	}

	min := -1
	for _, v := range l.variants {
		if min == -1 || counts[v] < min {
			min = counts[v]
		}
	}
	var tied []string
	for _, v := range l.variants {
		if counts[v] == min {
			tied = append(tied, v)
		}
	}
	return tied[l.rng.Intn(len(tied))]
}

// save writes through to the local file and then uploads best-effort.
// Neither failure rolls back the in-memory decision.
func (l *Ledger) save(ctx context.Context, rows []Assignment) {
	data, err := encodeCSV(rows)
	if err != nil {
		log.Printf("failed to encode assignments: %v", err)
		return
	}
	if err := os.WriteFile(l.localPath, data, 0o644); err != nil {
		log.Printf("failed to write local assignments %q: %v", l.localPath, err)
	}
	if _, err := l.remote.Put(ctx, l.fileName, data, csvMimeType); err != nil {
		log.Printf("failed to upload assignments %q: %v", l.fileName, err)
	}
}
