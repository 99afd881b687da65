package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ishaan-bit/reverie/internal/config"
	"github.com/ishaan-bit/reverie/internal/kv"
	"github.com/ishaan-bit/reverie/internal/logging"
	"github.com/ishaan-bit/reverie/internal/recap"
	"github.com/ishaan-bit/reverie/internal/server"
	"github.com/ishaan-bit/reverie/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	db, scripts, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer scripts.Close()

	builder := recap.NewBuilder(db, scripts, scripts, log)
	builder.Opts = buildOptions(cfg)

	srv := server.New(db, scripts, builder, log, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", addr).Str("db", db.Path).Msg("reverie serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	<-done
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// openDB resolves the configured database path, falling back to
// ~/.reverie, and opens the SQLite moment store.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// openStores opens the SQLite moment store and the badger script store.
// The badger directory defaults to a sibling of the database file.
func openStores(cfg config.Config) (*store.DB, *kv.Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	kvPath := cfg.KV.Path
	if kvPath == "" {
		kvPath = filepath.Join(filepath.Dir(db.Path), "kv")
	}

	scripts, err := kv.Open(kvPath, kv.Options{
		BookkeepingTTL: time.Duration(cfg.Recap.BookkeepingTTLDays) * 24 * time.Hour,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open kv store: %w", err)
	}

	return db, scripts, nil
}

func buildOptions(cfg config.Config) recap.Options {
	opts := recap.DefaultOptions()
	opts.Pool.NarrowDays = cfg.Recap.NarrowWindowDays
	opts.Pool.WideDays = cfg.Recap.WideWindowDays
	opts.SkipChance = cfg.Recap.SkipChance
	opts.DailyInterval = time.Duration(cfg.Recap.DailyIntervalHours) * time.Hour
	opts.WeeklyInterval = time.Duration(cfg.Recap.WeeklyIntervalDays) * 24 * time.Hour
	opts.ScriptTTL = time.Duration(cfg.Recap.ScriptTTLHours) * time.Hour
	return opts
}
