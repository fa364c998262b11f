package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironsheep/device-apps-bridge/internal/bridge"
)

func newListCmd(e *env) *cobra.Command {
	var req bridge.InstalledAppsRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print installed applications as JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := e.attach()
			if err != nil {
				return err
			}
			defer func() { <-b.Detach() }()

			ch, err := b.GetInstalledApps(cmd.Context(), req)
			if err != nil {
				return err
			}
			select {
			case res := <-ch:
				if res.Err != nil {
					return res.Err
				}
				return printJSON(cmd.OutOrStdout(), res.Value)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}
	cmd.Flags().BoolVar(&req.SystemApps, "system", false, "Include system applications")
	cmd.Flags().BoolVar(&req.IncludeAppIcons, "icons", false, "Embed icons as base64 PNG")
	cmd.Flags().BoolVar(&req.OnlyAppsWithLaunchIntent, "launchable", false, "Only applications that can be launched")
	return cmd
}

func newGetCmd(e *env) *cobra.Command {
	var includeIcon bool
	cmd := &cobra.Command{
		Use:   "get PACKAGE",
		Short: "Print one application record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := e.attach()
			if err != nil {
				return err
			}
			defer func() { <-b.Detach() }()

			record, err := b.GetApp(cmd.Context(), bridge.AppRequest{PackageName: args[0], IncludeAppIcon: includeIcon})
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%s is not installed", args[0])
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().BoolVar(&includeIcon, "icon", false, "Embed the icon as base64 PNG")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
