package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"quadsim/internal/admin"
	"quadsim/internal/logging"
	"quadsim/internal/sim"
)

var (
	serveConfigPath string
	serveSchemaPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run once and serve the admin UI",
	Long:  "serve integrates the configuration once and exposes the trajectory, summary and plot over HTTP. POST /run integrates again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}
		srv := admin.NewServer(*cfg, &sim.Runner{})
		if _, err := srv.Rerun(ctx); err != nil {
			logging.FromContext(ctx).Warn("initial run failed", "err", err)
		}
		return serveAdmin(ctx, srv, serveAddr, nil)
	},
}

// serveAdmin serves srv on addr until ctx is done.
func serveAdmin(ctx context.Context, srv *admin.Server, addr string, status sim.AdminStatusWriter) error {
	log := logging.FromContext(ctx)
	hs := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info("admin UI listening", "addr", addr)
	if status != nil {
		status.SetAdminStatus(true)
		defer status.SetAdminStatus(false)
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/quadsim.yaml", "Path to vehicle configuration YAML (empty for built-in defaults)")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
