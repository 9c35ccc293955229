// Package pipeline drives the fill, process and consolidate workflows over
// one or more distribution CSV files read as a single stream.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/consolidate"
	"github.com/coinledger/bnc/internal/distcsv"
	"github.com/coinledger/bnc/internal/inputs"
	"github.com/coinledger/bnc/internal/ledger"
	"github.com/coinledger/bnc/internal/logger"
	"github.com/coinledger/bnc/internal/model"
	"github.com/coinledger/bnc/internal/timestamp"
	"github.com/coinledger/bnc/internal/valuation"
)

// Runner runs workflows. It owns all per-run state and is not safe for
// concurrent use.
type Runner struct {
	resolver *valuation.Resolver
	progress io.Writer
	now      func() int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress writes one progress line per record to w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

// WithClock sets the time source used to value balances today.
func WithClock(now func() int64) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner valuing records with resolver.
func NewRunner(resolver *valuation.Resolver, opts ...Option) *Runner {
	r := &Runner{resolver: resolver, now: timestamp.NowMs}
	for _, o := range opts {
		o(r)
	}
	return r
}

type recordFunc func(ctx context.Context, rec *model.Record, line int) error

// each streams every record of files, in order, to fn.
func (r *Runner) each(ctx context.Context, files []inputs.FileInfo, fn recordFunc) (int, error) {
	base := logger.FromContext(ctx)
	n := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		log := base.With().Str("file", file.Name).Logger()
		fctx := logger.WithContext(ctx, log)
		log.Info().Msg("reading input")

		read, err := r.eachInFile(fctx, file, fn)
		n += read
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *Runner) eachInFile(ctx context.Context, file inputs.FileInfo, fn recordFunc) (int, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return 0, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	cr := distcsv.NewReader(f, file.Name)
	n := 0
	for {
		rec, line, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if r.progress != nil {
			fmt.Fprintf(r.progress, "Processing %s:%d %s\n", file.Name, line, rec.EffectiveAsset())
		}
		if err := fn(ctx, &rec, line); err != nil {
			return n, fmt.Errorf("%s: %w", file.Name, err)
		}
		n++
	}
}

// FillResult summarizes a fill run.
type FillResult struct {
	Records int
	Lookups int
}

// Fill resolves every missing USD value in files and writes the annotated
// records to out.
func (r *Runner) Fill(ctx context.Context, files []inputs.FileInfo, out io.Writer) (FillResult, error) {
	w := distcsv.NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return FillResult{}, err
	}

	start := r.resolver.Lookups()
	_, err := r.each(ctx, files, func(ctx context.Context, rec *model.Record, line int) error {
		if err := r.resolver.ResolveRecord(ctx, rec, line); err != nil {
			return err
		}
		return w.Write(*rec)
	})
	if err != nil {
		return FillResult{Records: w.Rows()}, err
	}
	if err := w.Flush(); err != nil {
		return FillResult{Records: w.Rows()}, err
	}

	return FillResult{Records: w.Rows(), Lookups: r.resolver.Lookups() - start}, nil
}

// ProcessResult holds the outcome of a process run.
type ProcessResult struct {
	Records    int
	Classifier *ledger.Classifier
}

// Process classifies every record of files, which must already be filled,
// and checks the end-of-run invariants.
func (r *Runner) Process(ctx context.Context, files []inputs.FileInfo) (*ProcessResult, error) {
	c := ledger.NewClassifier()
	n, err := r.each(ctx, files, func(ctx context.Context, rec *model.Record, line int) error {
		return c.Classify(ctx, *rec, line)
	})
	if err != nil {
		return nil, err
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &ProcessResult{Records: n, Classifier: c}, nil
}

// ValueToday sets each entry's ValueUSD to the value of its quantity now.
// Entries whose value cannot be resolved are valued at zero.
func (r *Runner) ValueToday(ctx context.Context, b *ledger.Balances) {
	log := logger.FromContext(ctx)
	now := r.now()
	for _, e := range b.Entries() {
		v, err := r.resolver.ValueAt(ctx, e.Asset, e.Quantity, now)
		if err != nil {
			log.Warn().Err(err).Str("asset", e.Asset).Msg("valuing balance today")
			v = decimal.Zero
		}
		e.ValueUSD = v
	}
}

// ConsolidateResult holds the outcome of a consolidate run.
type ConsolidateResult struct {
	Records   int
	Written   int
	Summaries []consolidate.Summary
}

// Consolidate groups the records of files by asset, merges adjacent
// Distribution runs and writes the sorted result to out.
func (r *Runner) Consolidate(ctx context.Context, files []inputs.FileInfo, out io.Writer) (*ConsolidateResult, error) {
	b := ledger.NewBalances()
	n, err := r.each(ctx, files, func(_ context.Context, rec *model.Record, line int) error {
		return b.AddRecord(*rec, line)
	})
	if err != nil {
		return nil, err
	}

	recs, sums, err := consolidate.Balances(b)
	if err != nil {
		return nil, err
	}
	if err := distcsv.WriteRecords(out, recs); err != nil {
		return nil, fmt.Errorf("writing consolidated records: %w", err)
	}
	_, written := b.RecordCount()
	return &ConsolidateResult{Records: n, Written: written, Summaries: sums}, nil
}
