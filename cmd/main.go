package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/pharma-ledger/config"
	"github.com/luca-patrignani/pharma-ledger/ledger"
	"github.com/luca-patrignani/pharma-ledger/store"
)

// errInvalidChain makes the process exit non-zero after a failed audit.
var errInvalidChain = errors.New("blockchain failed validation")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	envFiles   []string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pharmaledger",
		Short:         "Tamper-evident audit trail for pharmaceutical batches",
		Long:          "Record supply-chain events in a hash-linked ledger, export them to CSV and audit the chain for tampering.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, ".env files to load before reading the config")

	root.AddCommand(
		newSimulateCmd(a),
		newAppendCmd(a),
		newShowCmd(a),
		newVerifyCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) init() error {
	// Logger for config errors, before the configured level is known.
	a.logger = newLogger("info")
	if err := config.LoadEnv(a.envFiles...); err != nil {
		a.logger.Error("failed to load env file", "error", err)
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		a.logger.Error("failed to load config", "path", a.configPath, "error", err)
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log.Level)
	a.logger.Debug("config loaded", "csv", cfg.Ledger.CSVPath, "store", cfg.Ledger.StorePath)
	return nil
}

// newLogger creates a slog logger on top of the default pterm logger.
func newLogger(level string) *slog.Logger {
	var lvl pterm.LogLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = pterm.LogLevelDebug
	case "warn":
		lvl = pterm.LogLevelWarn
	case "error":
		lvl = pterm.LogLevelError
	default:
		lvl = pterm.LogLevelInfo
	}
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(lvl))
	return slog.New(handler)
}

// openChain opens the store and rebuilds the chain it holds. When create is
// set a missing store is created and an empty one yields a fresh chain;
// otherwise the store must already exist.
func (a *app) openChain(create bool) (*ledger.Blockchain, *store.Store, error) {
	open := store.OpenExisting
	if create {
		open = store.Open
	}
	s, err := open(a.cfg.Ledger.StorePath)
	if err != nil {
		a.logger.Error("failed to open store", "path", a.cfg.Ledger.StorePath, "error", err)
		return nil, nil, err
	}
	bc, err := s.LoadChain()
	if errors.Is(err, ledger.ErrEmptyChain) && create {
		a.logger.Info("store is empty, starting a new chain", "path", a.cfg.Ledger.StorePath)
		bc, err = ledger.NewBlockchain()
	}
	if err != nil {
		s.Close()
		a.logger.Error("failed to load chain", "path", a.cfg.Ledger.StorePath, "error", err)
		return nil, nil, err
	}
	return bc, s, nil
}
