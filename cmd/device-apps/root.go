package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/bridge"
	"github.com/ironsheep/device-apps-bridge/internal/config"
	"github.com/ironsheep/device-apps-bridge/internal/logging"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
	"github.com/ironsheep/device-apps-bridge/internal/registry/desktop"
	"github.com/ironsheep/device-apps-bridge/internal/registry/fake"
)

// env is the state shared by every command, built before the command runs.
type env struct {
	fixture string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:   "device-apps",
		Short: "Bridge to the installed applications of this host",
		Long: "device-apps serves the host application registry over JSON-RPC on stdin/stdout.\n\n" +
			"Environment variables:\n  " + strings.Join(config.Usage(), "\n  "),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, e)
		},
	}

	cmd.Version = versionString()
	cmd.SetVersionTemplate("device-apps {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&e.fixture, "fixture", "", "Serve packages from a JSON fixture file instead of the desktop entry database")

	cmd.AddCommand(newServeCmd(e))
	cmd.AddCommand(newListCmd(e))
	cmd.AddCommand(newGetCmd(e))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (e *env) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	e.cfg = cfg
	e.log = log
	return nil
}

// registry returns the host registry selected by flags and configuration.
func (e *env) registry() (registry.Registry, error) {
	if e.fixture != "" {
		reg, err := fake.LoadFile(e.fixture)
		if err != nil {
			return nil, fmt.Errorf("loading fixture: %w", err)
		}
		e.log.Info("serving fixture registry", zap.String("path", e.fixture))
		return reg, nil
	}

	dc := desktop.DefaultConfig()
	if dir := e.cfg.UserAppDir(); dir != "" {
		dc.UserDir = dir
		dc.SystemDirs = e.cfg.SystemAppDirs()
	}
	if len(e.cfg.IconDirs) > 0 {
		dc.IconDirs = e.cfg.IconDirs
	}
	if e.cfg.DataHome != "" {
		dc.DataHome = e.cfg.DataHome
	}
	dc.Debounce = e.cfg.WatchDebounce
	dc.Logger = e.log.Named("desktop")

	e.log.Debug("desktop registry",
		zap.String("user_dir", dc.UserDir),
		zap.Strings("system_dirs", dc.SystemDirs),
		zap.Strings("icon_dirs", dc.IconDirs))
	return desktop.New(dc), nil
}

// attach returns a bridge attached to the selected registry.
func (e *env) attach() (*bridge.Bridge, error) {
	reg, err := e.registry()
	if err != nil {
		return nil, err
	}
	b := bridge.New(bridge.Options{
		IconMaxSize:    e.cfg.IconMaxSize,
		ReportCategory: e.cfg.ReportCategory,
		Logger:         e.log.Named("bridge"),
	})
	if err := b.Attach(bridge.Host{Registry: reg}); err != nil {
		return nil, err
	}
	return b, nil
}
