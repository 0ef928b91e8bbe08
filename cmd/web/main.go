package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
	"github.com/GreyDragonEnt/Gelatomessina/internal/config"
	"github.com/GreyDragonEnt/Gelatomessina/internal/format"
	mw "github.com/GreyDragonEnt/Gelatomessina/internal/middleware"
	"github.com/GreyDragonEnt/Gelatomessina/internal/observability"
	"github.com/GreyDragonEnt/Gelatomessina/internal/storefront"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
)

const (
	templatesDir    = "cmd/web/templates"
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

var envFile string

// flagKeys maps command line flags onto their environment keys.
var flagKeys = map[string]string{
	"log-level": "LOG_LEVEL",
	"port":      "PORT",
	"store":     "STORE_DRIVER",
	"dsn":       "STORE_DSN",
	"dev":       "DEV",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gelato-web",
		Short:         "Gelato storefront web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), func() (config.Config, error) { return loadConfig(cmd) })
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file (empty disables)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), func() (config.Config, error) { return loadConfig(cmd) })
		},
	}
	serveCmd.Flags().String("port", "", "listen port")
	serveCmd.Flags().String("store", "", "store driver (memory, sqlite)")
	serveCmd.Flags().String("dsn", "", "sqlite data source name")
	serveCmd.Flags().Bool("dev", false, "reparse templates from disk on every request")

	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Print one page load's worth of flavour prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return printPrices(cmd.OutOrStdout(), cfg)
		},
	}

	root.AddCommand(serveCmd, pricesCmd)
	return root
}

// loadConfig layers explicitly set flags over the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	overrides := map[string]string{}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			overrides["GELATO_WEB_"+key] = f.Value.String()
		}
	}
	return config.Load(cmd.Context(), config.WithEnvFile(envFile), config.WithEnvMap(overrides))
}

func pricesFromConfig(cfg config.Config) (*catalogue.UniformPrice, error) {
	low, err := decimal.NewFromString(cfg.Pricing.Low)
	if err != nil {
		return nil, fmt.Errorf("price low: %w", err)
	}
	span, err := decimal.NewFromString(cfg.Pricing.Span)
	if err != nil {
		return nil, fmt.Errorf("price span: %w", err)
	}
	return catalogue.NewUniformPrice(low, span, nil), nil
}

func printPrices(w io.Writer, cfg config.Config) error {
	gen, err := pricesFromConfig(cfg)
	if err != nil {
		return err
	}
	priced, err := catalogue.Load(gen)
	if err != nil {
		return err
	}
	for _, item := range priced.Items() {
		if _, err := fmt.Fprintf(w, "%s %-24s %s\n", item.Emoji, item.Name, format.Price(item.Price)); err != nil {
			return err
		}
	}
	return nil
}

type backend interface {
	store.ScopedBackend
	io.Closer
}

func openStore(ctx context.Context, cfg config.Config) (backend, *store.SQLiteStore, error) {
	if cfg.Store.Driver == config.StoreDriverSQLite {
		db, err := store.OpenSQLite(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
	return store.NewMemoryStore(), nil, nil
}

func serve(parent context.Context, load func() (config.Config, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("web")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	metrics, err := observability.NewCartMetrics()
	if err != nil {
		logger.Warn("cart metrics disabled", zap.Error(err))
	}

	kv, sqlite, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("store close error", zap.Error(err))
		}
	}()

	prices, err := pricesFromConfig(cfg)
	if err != nil {
		return err
	}
	pages, err := storefront.NewRegistry(kv, storefront.RegistryConfig{
		Capacity: cfg.Pages.Capacity,
		TTL:      cfg.Pages.TTL,
		Logger:   logger.Named("pages"),
		Options: storefront.Options{
			Prices:                   prices,
			Metrics:                  metrics,
			CarouselInterval:         cfg.Widgets.CarouselInterval,
			SliderStepInterval:       cfg.Widgets.SliderStepInterval,
			ScrollToCatalogueOnClose: cfg.Widgets.ScrollToCatalogueOnClose,
		},
	})
	if err != nil {
		return err
	}
	defer pages.Close()

	scope, err := mw.NewBrowserScope(mw.BrowserConfig{
		HashKey:  []byte(cfg.Session.HashKey),
		BlockKey: []byte(cfg.Session.BlockKey),
		Secure:   cfg.Session.Secure,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	rend, err := newRenderer(cfg.Dev, templatesDir)
	if err != nil {
		return err
	}

	srv := &server{logger: logger, pages: pages, scope: scope, renderer: rend}
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gelato web listening",
			zap.String("addr", httpServer.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("dev", cfg.Dev),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})
	if sqlite != nil && cfg.Store.Retention > 0 {
		g.Go(func() error {
			purgeLoop(gctx, logger.Named("store"), sqlite, cfg.Store.Retention)
			return nil
		})
	}
	return g.Wait()
}

// purgeLoop drops browser state that has not been written within retention.
func purgeLoop(ctx context.Context, logger *zap.Logger, db *store.SQLiteStore, retention time.Duration) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			removed, err := db.PurgeBefore(runCtx, time.Now().Add(-retention))
			cancel()
			if err != nil {
				logger.Error("store purge error", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("store purge removed entries", zap.Int64("count", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
