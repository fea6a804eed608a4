// Package chatlog persists completed conversation turns as one flat
// CSV across all participants and sessions. Flushes rewrite the whole
// durable file after merging and deduplicating, which makes retried
// uploads and overlapping sessions converge instead of duplicating
// rows.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mkosmas1/LLM-Alignment/internal/blobstore"
)

const csvMimeType = "text/csv"

type Pipeline struct {
	mu        sync.Mutex
	remote    blobstore.Store
	fileName  string
	localPath string
}

func NewPipeline(remote blobstore.Store, localPath string) (*Pipeline, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &Pipeline{
		remote:    remote,
		fileName:  filepath.Base(localPath),
		localPath: localPath,
	}, nil
}

// Flush merges the given turns into the durable log: load the current
// remote copy (absent or corrupt means empty), append, deduplicate on
// (user_id, task_index, prompt, response) keeping the most recent row,
// sort by timestamp and rewrite local file plus remote blob.
// Idempotent under retry. A returned error means reduced durability,
// never lost in-memory turns; a later flush self-heals.
func (p *Pipeline) Flush(ctx context.Context, turns []Turn) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing := p.loadRemote(ctx)
	merged := dedup(append(existing, turns...))
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	data, err := encodeCSV(merged)
	if err != nil {
		return fmt.Errorf("encode chat log: %w", err)
	}
	if err := os.WriteFile(p.localPath, data, 0o644); err != nil {
		return fmt.Errorf("write local chat log: %w", err)
	}
	if _, err := p.remote.Put(ctx, p.fileName, data, csvMimeType); err != nil {
		return fmt.Errorf("upload chat log: %w", err)
	}
	return nil
}

// Sync re-flushes the local copy of the log. Run periodically it heals
// a durable copy that fell behind after a failed upload; dedup makes
// the re-submission a no-op when nothing was lost.
func (p *Pipeline) Sync(ctx context.Context) error {
	p.mu.Lock()
	local := p.loadLocal()
	p.mu.Unlock()
	if len(local) == 0 {
		return nil
	}
	return p.Flush(ctx, local)
}

func (p *Pipeline) loadRemote(ctx context.Context) []Turn {
	data, err := p.remote.Get(ctx, p.fileName)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			log.Printf("failed to load chat log %q, starting empty: %v", p.fileName, err)
		}
		return nil
	}
	turns, err := parseCSV(data)
	if err != nil {
		log.Printf("corrupt chat log %q, starting empty: %v", p.fileName, err)
		return nil
	}
	return turns
}

func (p *Pipeline) loadLocal() []Turn {
	data, err := os.ReadFile(p.localPath)
	if err != nil {
		return nil
	}
	turns, err := parseCSV(data)
	if err != nil {
		log.Printf("corrupt local chat log %q: %v", p.localPath, err)
		return nil
	}
	return turns
}

// dedup keeps the last occurrence per key while preserving relative
// order of first appearance.
func dedup(turns []Turn) []Turn {
	latest := make(map[key]Turn, len(turns))
	order := make([]key, 0, len(turns))
	for _, t := range turns {
		k := t.dedupKey()
		if _, seen := latest[k]; !seen {
			order = append(order, k)
		}
		latest[k] = t
	}
	out := make([]Turn, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}
