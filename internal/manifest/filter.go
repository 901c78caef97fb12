// Package manifest builds the object manifest the feed samples from: a raw
// collection listing filtered down to objects that carry a primary image.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

const (
	defaultWorkers   = 30
	defaultChunkSize = 50000
)

// ImageChecker reports whether an object has a primary image.
type ImageChecker interface {
	HasPrimaryImage(ctx context.Context, objectID int) (bool, error)
}

// Options configures Filter. Zero values take defaults.
type Options struct {
	Workers   int
	ChunkSize int
	// Checkpoint is the resume file. Empty disables resuming.
	Checkpoint string
	// Progress runs after every chunk with the records processed so far.
	Progress func(done, total, kept int)
	Logger   *slog.Logger
}

// Checkpoint is the persisted progress of an interrupted run.
type Checkpoint struct {
	Total int                     `json:"total"`
	Next  int                     `json:"next"`
	Kept  []domain.UniverseRecord `json:"kept"`
}

// Filter keeps the records whose object has a primary image, in input order.
//
// Records are checked chunk by chunk with a bounded worker pool. After each
// chunk the progress is written to the checkpoint, and a later run over the
// same input resumes after the last completed chunk. Lookup failures drop the
// record; only a canceled ctx stops the run.
func Filter(ctx context.Context, records []domain.UniverseRecord, checker ImageChecker, opts Options) ([]domain.UniverseRecord, error) {
	if opts.Workers < 1 {
		opts.Workers = defaultWorkers
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = defaultChunkSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cp := Checkpoint{Total: len(records), Kept: []domain.UniverseRecord{}}
	if opts.Checkpoint != "" {
		prev, err := LoadCheckpoint(opts.Checkpoint)
		switch {
		case err == nil && prev.Total == len(records) && prev.Next <= len(records):
			cp = prev
			logger.Info("resuming from checkpoint", "next", cp.Next, "kept", len(cp.Kept))
		case err == nil:
			logger.Warn("checkpoint does not match input, starting over",
				"checkpoint_total", prev.Total,
				"input_total", len(records),
			)
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	for start := cp.Next; start < len(records); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(records))

		kept, err := filterChunk(ctx, records[start:end], checker, opts.Workers, logger)
		if err != nil {
			return nil, err
		}

		cp.Kept = append(cp.Kept, kept...)
		cp.Next = end
		if opts.Checkpoint != "" {
			if err := SaveCheckpoint(opts.Checkpoint, cp); err != nil {
				return nil, err
			}
		}
		logger.Info("chunk done", "from", start+1, "to", end, "kept", len(kept))
		if opts.Progress != nil {
			opts.Progress(end, len(records), len(cp.Kept))
		}
	}

	return cp.Kept, nil
}

func filterChunk(ctx context.Context, chunk []domain.UniverseRecord, checker ImageChecker, workers int, logger *slog.Logger) ([]domain.UniverseRecord, error) {
	keep := make([]bool, len(chunk))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range chunk {
		g.Go(func() error {
			ok, err := checker.HasPrimaryImage(gctx, r.ObjectID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Debug("image check failed", "object_id", r.ObjectID, "error", err)
				return nil
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make([]domain.UniverseRecord, 0, len(chunk))
	for i, r := range chunk {
		if keep[i] {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// LoadCheckpoint reads a checkpoint file.
func LoadCheckpoint(path string) (Checkpoint, error) {
	var cp Checkpoint
	data, err := os.ReadFile(path) //#nosec G304 -- checkpoint path comes from the command line
	if err != nil {
		return cp, err
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// SaveCheckpoint atomically replaces the checkpoint file.
func SaveCheckpoint(path string, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return writeFileAtomic(path, data)
}

// WriteRecords writes records as an indented JSON array.
func WriteRecords(path string, records []domain.UniverseRecord) error {
	if records == nil {
		records = []domain.UniverseRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
