package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazybuddy/buddy/internal/config"
	pctx "github.com/lazybuddy/buddy/internal/context"
	"github.com/lazybuddy/buddy/internal/correlation"
	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/metrics"
	"github.com/lazybuddy/buddy/internal/notes"
	"github.com/lazybuddy/buddy/internal/pattern"
	"github.com/lazybuddy/buddy/internal/vault"
)

var rootCmd = &cobra.Command{
	Use:   "buddy",
	Short: "Personal life-tracking and note-mining assistant",
	Long: "Buddy records self-reported metrics across five life systems, mines\n" +
		"markdown notes for recurring themes, and surfaces statistical\n" +
		"relationships between systems. Single binary, local JSON documents.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(avgCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(correlationsCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(serveCmd)
}

// app wires the stores and engines together once per invocation. Each
// store is a single instance passed by reference; nothing is a package
// singleton.
type app struct {
	cfg      config.Config
	log      *logging.Logger
	metrics  *metrics.Store
	engine   *correlation.Engine
	vault    *vault.Vault
	analyzer *notes.Analyzer
	detector *pattern.Detector
	context  *pctx.Manager
}

func newApp() (*app, error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logsDir, err := cfg.LogsDir()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logsDir)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	memDir, err := cfg.MemoryDir()
	if err != nil {
		log.Close()
		return nil, err
	}

	store := metrics.NewStore(memDir, cfg.Memory.User, log)
	v := vault.New(cfg.Vault.Path, log)
	analyzer := notes.NewAnalyzer(v, log)

	return &app{
		cfg:      cfg,
		log:      log,
		metrics:  store,
		engine:   correlation.New(store, log),
		vault:    v,
		analyzer: analyzer,
		detector: pattern.NewDetector(memDir, v, analyzer, log),
		context:  pctx.NewManager(memDir, log),
	}, nil
}

func (a *app) Close() {
	if a.cfg.Logs.KeepDays > 0 {
		a.log.CleanOld(a.cfg.Logs.KeepDays)
	}
	a.log.Close()
}
