package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vidcraft-ai/vidcraft/internal/config"
	"github.com/vidcraft-ai/vidcraft/internal/cost"
	"github.com/vidcraft-ai/vidcraft/internal/mcpserver"
	"github.com/vidcraft-ai/vidcraft/internal/stats"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr  string
		stdio bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over streamable HTTP or stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				g.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcpserver.New(a.agent, version, g.logger)
			if stdio {
				g.logger.Info("serving MCP over stdio")
				return server.Run(ctx, &mcp.StdioTransport{})
			}
			return serveHTTP(ctx, g, newMux(g.cfg, server, a.stats, a.usage))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	return cmd
}

// statsReport is the /stats document.
type statsReport struct {
	*stats.Stats
	Usage cost.Summary `json:"model_usage"`
}

func newMux(cfg *config.Config, server *mcp.Server, collector *stats.Collector, usage *cost.Tracker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MCPPath, mcpserver.Handler(server))
	mux.Handle(cfg.Server.MetricsPath, collector.Handler())
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		journalPath := ""
		if cfg.Journal.Enabled {
			journalPath = cfg.Journal.Path
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsReport{
			Stats: collector.Collect(journalPath),
			Usage: usage.Summary(),
		})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if cfg.Render.VideosDir != "" {
		prefix := "/" + strings.Trim(cfg.Render.URLPrefix, "/") + "/"
		mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Render.VideosDir))))
	}
	return mux
}

func serveHTTP(ctx context.Context, g *globals, handler http.Handler) error {
	srv := &http.Server{
		Addr:              g.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g.logger.Info("listening", "addr", srv.Addr, "mcp", g.cfg.Server.MCPPath, "metrics", g.cfg.Server.MetricsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
