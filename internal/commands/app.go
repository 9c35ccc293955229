package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coinledger/bnc/internal/binance"
	"github.com/coinledger/bnc/internal/buildinfo"
	"github.com/coinledger/bnc/internal/config"
	"github.com/coinledger/bnc/internal/inputs"
	"github.com/coinledger/bnc/internal/logger"
	"github.com/coinledger/bnc/internal/pipeline"
	"github.com/coinledger/bnc/internal/report"
	"github.com/coinledger/bnc/internal/runlog"
	"github.com/coinledger/bnc/internal/valuation"
)

// envFile is loaded from the working directory when present.
const envFile = ".env"

// App carries the state shared by every command of one process.
type App struct {
	Info buildinfo.Info

	configPath string
	verbose    bool

	cfg   *config.Config
	log   zerolog.Logger
	runID string
}

// setup loads configuration and attaches a run-tagged logger to the
// command's context.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}
	if !binance.ValidInterval(cfg.Binance.KlineInterval) {
		return fmt.Errorf("invalid config %s: binance.kline_interval %q", a.configPath, cfg.Binance.KlineInterval)
	}
	a.cfg = cfg

	log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level)
	a.log, a.runID = logger.WithRunID(log.With().Str("command", cmd.Name()).Logger())
	cmd.SetContext(logger.WithContext(cmd.Context(), a.log))
	return nil
}

func (a *App) newRunner(cmd *cobra.Command) *pipeline.Runner {
	b := a.cfg.Binance
	client := binance.NewClient(b.BaseURL, a.cfg.APIKey,
		binance.WithTimeout(b.Timeout),
		binance.WithRetries(b.MaxRetries, b.RetryBackoff),
		binance.WithRateLimit(b.RequestsPerSecond),
		binance.WithCacheTTL(a.cfg.Cache.TTL),
		binance.WithInterval(b.KlineInterval),
		binance.WithLogger(a.log),
		binance.WithUserAgent(a.Info.UserAgent()),
	)
	resolver := valuation.NewResolver(client, a.cfg.Valuation.QuoteAssets)

	var opts []pipeline.Option
	if a.verbose {
		opts = append(opts, pipeline.WithProgress(cmd.ErrOrStderr()))
	}
	return pipeline.NewRunner(resolver, opts...)
}

// record appends the run to the configured run log. Failures only warn.
func (a *App) record(command string, files []inputs.FileInfo, output string, records int, detail string) {
	if a.cfg.RunLog == "" {
		return
	}
	entry := runlog.Entry{
		Timestamp: time.Now(),
		RunID:     a.runID,
		Command:   command,
		Inputs:    inputs.Paths(files),
		Output:    output,
		Records:   records,
		Detail:    detail,
	}
	if err := runlog.Append(a.cfg.RunLog, []runlog.Entry{entry}); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.RunLog).Msg("writing run log")
	}
}

func printReport(w io.Writer, markdown string, opts report.Options) error {
	out, err := report.Render(markdown, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
