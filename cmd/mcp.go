package cmd

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP on stdin/stdout",
		Long: `mcp runs a Model Context Protocol server on stdio with the tools
analyze_profile, top_leaves and list_tasks. Analyzed recordings stay cached
between calls until the file changes or the cache entry expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Metrics.Listen
			}
			if listen != "" {
				srv := a.metricsServer(listen)
				defer srv.Close()
			}
			return mcpserver.New(a.cache, a.dims, version, a.log).ServeStdio()
		},
	}
	cmd.Flags().StringVar(&listen, "metrics-listen", "", "Serve prometheus /metrics on this address, e.g. :9464")
	return cmd
}

// metricsServer serves the registry in the background until closed.
func (a *app) metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
