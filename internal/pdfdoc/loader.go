package pdfdoc

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// File is a named PDF waiting to be loaded.
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of loading one File. Exactly one of Doc and Err
// is set.
type Result struct {
	Name string
	Doc  *Document
	Err  error
}

// LoadAll parses files concurrently and returns one Result per file in
// input order. A file that fails to parse does not stop the others; only
// context cancellation aborts the batch.
func LoadAll(ctx context.Context, files []File, limit int) ([]Result, error) {
	results := make([]Result, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, f := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := FromBytes(f.Data)
			if err != nil {
				slog.Warn("Failed to load source PDF.", "fileName", f.Name, "error", err)
			}
			results[i] = Result{Name: f.Name, Doc: doc, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
