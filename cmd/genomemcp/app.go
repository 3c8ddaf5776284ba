package main

import (
	"context"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/agent"
	"github.com/genomemcp/genomemcp/internal/config"
	"github.com/genomemcp/genomemcp/internal/entrez"
	"github.com/genomemcp/genomemcp/internal/evidence"
	"github.com/genomemcp/genomemcp/internal/fetch"
	"github.com/genomemcp/genomemcp/internal/gnomad"
	"github.com/genomemcp/genomemcp/internal/health"
	"github.com/genomemcp/genomemcp/internal/llm"
	"github.com/genomemcp/genomemcp/internal/logging"
	"github.com/genomemcp/genomemcp/internal/reactome"
	"github.com/genomemcp/genomemcp/internal/store"
	"github.com/genomemcp/genomemcp/internal/tools"
	"github.com/genomemcp/genomemcp/internal/tracer"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	shutdown tracer.ShutdownFunc

	registry  *tools.Registry
	evidence  *evidence.Aggregator
	health    *health.Registry
	store     *store.DB
	storeOpen bool
}

// loadConfig loads configuration and applies the persistent flags that were
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configDir)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = rootFlags.backend
	}
	if flags.Changed("model") {
		cfg.Model = rootFlags.model
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = rootFlags.baseURL
	}
	if flags.Changed("user") {
		cfg.UserID = rootFlags.userID
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootFlags.verbose
	}
	if rootFlags.noColor {
		color.NoColor = true
	}
	return cfg, nil
}

// newApp wires config, logging, tracing, the upstream clients and the
// capability registry. The store is opened lazily by openStore.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		shutdown: tracer.Init(cmd.Context(), cfg.OTelEnabled, cfg.OTelEndpoint, logger),
		health:   health.NewRegistry(),
	}

	fetcher := fetch.New(cfg.DataTimeout, logger.Named("fetch"))
	eutils := entrez.New(fetcher, entrez.Options{
		APIKey: cfg.NCBIAPIKey,
		Tool:   cfg.NCBITool,
		Email:  cfg.NCBIEmail,
	}, logger.Named("entrez"))
	a.evidence = &evidence.Aggregator{
		Variants:    eutils,
		Literature:  eutils,
		Transcripts: eutils,
		Pathways:    reactome.New(fetcher, "", logger.Named("reactome")),
		Logger:      logger.Named("evidence"),
	}
	a.registry, err = tools.NewGenomicsRegistry(tools.Deps{
		ClinVar:     eutils,
		Population:  gnomad.New(fetcher, "", logger.Named("gnomad")),
		Evidence:    a.evidence,
		GenomeBuild: cfg.GenomeBuild,
		Logger:      logger.Named("tools"),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openStore opens the history database and registers its health check.
func (a *app) openStore(ctx context.Context) (*store.DB, error) {
	if a.storeOpen {
		return a.store, nil
	}
	db, err := store.Open(ctx, a.cfg.DBPath, a.logger.Named("store"))
	if err != nil {
		return nil, err
	}
	a.store, a.storeOpen = db, true
	a.health.Register("store", db)
	return db, nil
}

// record saves a history item when the store can be opened. Failures are
// logged and never fail the command.
func (a *app) record(ctx context.Context, itemType string, content any, query string) {
	db, err := a.openStore(ctx)
	if err != nil {
		a.logger.Warn("history unavailable", zap.Error(err))
		return
	}
	db.AddHistoryAsync(a.cfg.UserID, itemType, content, query)
}

// model builds the configured model backend and registers its health check.
func (a *app) model() (llm.Client, error) {
	client, err := llm.New(llm.Options{
		Backend: a.cfg.Backend,
		Model:   a.cfg.Model,
		BaseURL: a.cfg.BaseURL,
		APIKey:  a.cfg.APIKey,
		Timeout: a.cfg.ModelTimeout,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.health.Register("model", client)
	return client, nil
}

// loop builds the conversation loop over the given tool names (all when empty).
func (a *app) loop(cmd *cobra.Command, only []string) (*agent.Loop, error) {
	client, err := a.model()
	if err != nil {
		return nil, err
	}
	reg := a.registry
	if len(only) > 0 {
		if reg, err = a.registry.Subset(only); err != nil {
			return nil, err
		}
	}
	l := agent.New(client, reg, a.logger.Named("agent"))
	l.Temperature = a.cfg.Temperature
	l.MaxIterations = a.cfg.MaxIterations
	l.Parallel = a.cfg.ParallelTools
	l.MaxToolOutputRunes = a.cfg.ToolOutputMaxRunes
	if a.cfg.SystemPromptFile != "" {
		if l.SystemPrompt, err = agent.LoadSystemPrompt(a.cfg.SystemPromptFile); err != nil {
			return nil, err
		}
	}
	if a.cfg.Verbose {
		l.Observer = agent.Observers{
			agent.LogObserver{Logger: l.Logger},
			agent.WriterObserver{W: cmd.ErrOrStderr()},
		}
	}
	return l, nil
}

func (a *app) close() {
	if a.storeOpen {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Warn("tracer shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// stdinIsTerminal reports whether stdin looks interactive.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
