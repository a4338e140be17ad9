package stream

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/unserial/unserial"
)

type batchConfig struct {
	concurrency int
	log         *zap.Logger
}

// BatchOption configures DecodeAll.
type BatchOption func(*batchConfig)

// WithConcurrency bounds the number of inputs decoded at once
// (default: GOMAXPROCS). Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBatchLogger routes decoder traces and warnings to log. Each entry
// carries the input name.
func WithBatchLogger(log *zap.Logger) BatchOption {
	return func(c *batchConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// DecodeAll decodes independent inputs concurrently.
//
// Results are returned in input order. A failing input does not stop the
// others: its Result carries the error, and the returned error combines
// every failure. Inputs not yet started when ctx is cancelled fail with
// the context error.
func DecodeAll(ctx context.Context, inputs []Input, opts ...BatchOption) ([]Result, error) {
	cfg := batchConfig{
		concurrency: runtime.GOMAXPROCS(0),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, in := range inputs {
		results[i].Name = in.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%s: %w", in.Name, err)
				return nil
			}

			opts := unserial.DecodeOptions{Logger: cfg.log.With(zap.String("input", in.Name))}
			v, err := unserial.DecodeWithOptions(string(in.Data), opts)
			if err != nil {
				results[i].Err = fmt.Errorf("%s: %w", in.Name, err)
				return nil
			}
			results[i].Value = v
			results[i].Fingerprint = Fingerprint(v)
			return nil
		})
	}
	_ = g.Wait()

	var err error
	for _, r := range results {
		err = multierr.Append(err, r.Err)
	}
	cfg.log.Debug("batch decoded",
		zap.Int("inputs", len(inputs)),
		zap.Int("failed", len(multierr.Errors(err))))
	return results, err
}
