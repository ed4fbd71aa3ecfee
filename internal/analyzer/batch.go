package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rana718/migcheck/internal/migration"
)

// Source loads one migration set. *migration.Loader satisfies it.
type Source interface {
	Dir() string
	Load(ctx context.Context) ([]migration.Source, error)
}

// AnalyzeAll analyses independent migration sets concurrently. Results are
// returned in input order; the first load error cancels the rest.
func (a *Analyzer) AnalyzeAll(ctx context.Context, sets []Source) ([]*Result, error) {
	results := make([]*Result, len(sets))
	eg, ctx := errgroup.WithContext(ctx)

	for i, set := range sets {
		eg.Go(func() error {
			sources, err := set.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load migrations from %s: %w", set.Dir(), err)
			}
			a.logger.Debug("analysing migration set", zap.String("dir", set.Dir()), zap.Int("migrations", len(sources)))

			res := a.AnalyzeSources(sources)
			res.Dir = set.Dir()
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
