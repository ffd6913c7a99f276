package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"philalign/api/internal/compare"
	"philalign/api/internal/handle"
	"philalign/api/internal/httpserver"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			h := handle.New(handle.Options{
				Orchestrator: &compare.Orchestrator{
					Clients:     a.clients(),
					Delay:       a.cfg.CallDelay,
					Policy:      a.policy(),
					MaxTokens:   a.cfg.MaxTokens,
					Temperature: a.cfg.Temperature,
					System:      a.systemPrompts(),
					Log:         a.log,
				},
				ResultsDir:    a.cfg.ResultsDir,
				ResultsPrefix: a.cfg.ResultsPrefix,
				Log:           a.log,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return httpserver.Serve(ctx, ":"+port, httpserver.NewMux(h, "ok"), a.log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 8000)")
	return cmd
}
