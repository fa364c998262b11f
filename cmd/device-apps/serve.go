package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge over JSON-RPC on stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, e)
		},
	}
}

func runServe(cmd *cobra.Command, e *env) error {
	b, err := e.attach()
	if err != nil {
		return err
	}

	e.log.Info("device apps bridge starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit))

	srv := server.New(b, server.ServerInfo{Name: "device-apps", Version: Version}, e.log.Named("server"))
	if err := srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return err
	}
	e.log.Info("device apps bridge stopped")
	return nil
}
