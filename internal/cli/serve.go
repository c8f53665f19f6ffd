package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Anika-Jha/Eterna/internal/blob"
	"github.com/Anika-Jha/Eterna/internal/engine"
	"github.com/Anika-Jha/Eterna/internal/llm"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/metrics"
	"github.com/Anika-Jha/Eterna/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveSeed bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the decay scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "insert the sample archive when the database is empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if serveSeed {
		n, err := db.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if n > 0 {
			log.Info("seeded sample archive", "artifacts", n)
		}
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Warn("llm not configured, narratives use the fallback", "err", err)
		llmClient = llm.None{}
	}

	m := metrics.New()
	eng := engine.New(db, llmClient,
		engine.WithMetrics(m),
		engine.WithNarrativeTimeout(cfg.LLM.Timeout),
		engine.WithDecay(
			engine.WithPeriod(cfg.Decay.Interval),
			engine.WithWorkers(cfg.Decay.Workers),
		),
	)
	if cfg.Decay.Enabled {
		if err := eng.Start(ctx); err != nil {
			return fmt.Errorf("start decay: %w", err)
		}
	}
	defer eng.Stop()

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	opts := []server.Option{
		server.WithBlobStore(blobs),
		server.WithMetrics(m),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	}
	if static := staticFS(cfg.Server.StaticDir); static != nil {
		opts = append(opts, server.WithStatic(static))
	}
	srv := server.New(db, eng, VersionString(), opts...)

	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("eterna serving",
			"addr", addr,
			"db", db.Path,
			"llm", cfg.LLM.Provider,
			"blob", cfg.Blob.Driver,
			"decay", cfg.Decay.Enabled,
			"interval", cfg.Decay.Interval,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// staticFS prefers a configured directory over the embedded gallery.
func staticFS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return embeddedUI
}
