package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/certs"
	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/Veraticus/expense-cascade/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification HTTP API",
		Long: `Serve the cascade over HTTP:

  POST /api/categorize  {"text": "...", "user_id": "..."}
  POST /api/feedback    {"text": "...", "category": "...", "user_id": "..."}
  GET  /api/categories
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			slog.Info("Cascade ready", "stages", a.engine.Stages(), "categories", len(a.engine.Categories()))
			srv := server.New(a.engine, slog.Default())

			useTLS, _ := cmd.Flags().GetBool("tls")
			if !useTLS {
				return srv.ListenAndServe(ctx, a.settings.Server.Addr)
			}

			certDir, _ := cmd.Flags().GetString("cert-dir")
			hosts, _ := cmd.Flags().GetStringSlice("host")
			manager := certs.NewFileManager(config.ExpandPath(certDir), hosts...)
			cert, err := manager.GetOrCreateCertificate()
			if err != nil {
				return fmt.Errorf("failed to prepare TLS certificate: %w", err)
			}
			slog.Info("Using self-signed certificate", "cert", manager.CertFile())
			return srv.ListenAndServeTLS(ctx, a.settings.Server.Addr, cert)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().String("cert-dir", "$HOME/.config/cascade/certs", "directory holding the self-signed certificate")
	cmd.Flags().StringSlice("host", nil, "extra host names or IPs for the certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
