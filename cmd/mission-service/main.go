// mission-service 任务服务，通过 peercall 调用 user、spacecraft、cargo 服务。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/internal/app"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mission-service",
		Short:         "Mission service backed by resilient peer calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), configCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := app.LoadConfig(ctx, dir, nil)
			if err != nil {
				return err
			}
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					a.Logger().Error("shutdown failed", clog.Error(err))
				}
			}()
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&dir, "config", "", "directory containing mission.yaml (default: . and ./config)")
	return cmd
}

func configCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate configuration without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context(), dir, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: service=%s addr=%s credential=%s\n",
				cfg.Service, cfg.Server.Addr, cfg.Credential.Mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "config", "", "directory containing mission.yaml (default: . and ./config)")
	return cmd
}
