package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/memory/assets"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/httpserver"
	"github.com/robalobadob/memory/internal/session"
	"github.com/robalobadob/memory/internal/store"
	"github.com/robalobadob/memory/internal/symbols"
)

var cfg config

var rootCmd = &cobra.Command{
	Use:   "memory",
	Short: "Serve the memory matching game",
	Long: `memory serves a card-matching game over HTTP, WebSocket and SSE.

Run with no arguments to serve on $PORT (default 5175) with an
in-memory store, or point it at a SQLite file to keep sessions
across restarts
	memory --db ./data/memory.db
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	_ = godotenv.Load()
	cfg = configFromEnv()

	rootCmd.Flags().StringVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP port to listen on")
	rootCmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty keeps sessions in memory)")
	rootCmd.Flags().StringVar(&cfg.SymbolsFile, "symbols", cfg.SymbolsFile, "file with one symbol per line (default: built-in set)")
	rootCmd.Flags().BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "human-readable console logs")
	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "zerolog level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config) error {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := symbols.Init(cfg.SymbolsFile); err != nil {
		log.Error().Err(err).Msg("failed to load symbols")
		return err
	}

	st := store.NewMemoryStore()
	if cfg.DBPath != "" {
		db, err := openDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate(db, assets.Migrations()); err != nil {
			return err
		}
		st = store.NewSQLiteStore(db)
		log.Info().Str("path", cfg.DBPath).Msg("using sqlite store")
	}

	hub := httpserver.NewHub()
	mgr := session.NewManager(session.Config{
		Symbols: symbols.All(),
		Delays: game.Delays{
			Mismatch: cfg.MismatchDelay,
			Win:      cfg.WinDelay,
			Tick:     cfg.TickInterval,
		},
		Store:     st,
		Listener:  hub,
		TTL:       cfg.SessionTTL,
		DailySalt: cfg.DailySalt,
	})
	go mgr.Run(ctx, time.Minute)

	srv := httpserver.New(mgr, hub, httpserver.Options{
		JWTSecret:     cfg.JWTSecret,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.SecureCookies,
	})

	log.Info().Str("port", cfg.Port).Int("pairs", mgr.Pairs()).Msg("starting memory server")
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(":" + cfg.Port) }()

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("server exited")
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	}
}
