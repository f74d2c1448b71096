package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/bryan-buckman/bookserver/internal/database"
	"github.com/bryan-buckman/bookserver/internal/model"
	"github.com/bryan-buckman/bookserver/internal/server"
)

type config struct {
	Addr         string `env:"ADDR, default=0.0.0.0:8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabasePath string `env:"DATABASE_PATH, default=bookserver.db"`
	BaseURL      string `env:"BASE_URL, default=http://localhost:8080"`
	Title        string `env:"CATALOG_TITLE, default=Recently Added"`
	PageSize     int    `env:"PAGE_SIZE, default=50"`
	Poll         bool   `env:"POLL, default=true"`

	PubName     string `env:"PUBLISHER_NAME, default=Internet Archive"`
	PubURI      string `env:"PUBLISHER_URI, default=http://www.archive.org"`
	PubOPDSRoot string `env:"PUBLISHER_OPDS_ROOT, default=http://bookserver.archive.org/catalog"`
	PubURNRoot  string `env:"PUBLISHER_URN_ROOT, default=urn:x-internet-archive:bookserver:catalog"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		Pub: model.PubInfo{
			Name:     cfg.PubName,
			URI:      cfg.PubURI,
			OPDSRoot: cfg.PubOPDSRoot,
			URNRoot:  cfg.PubURNRoot,
		},
		Title:    cfg.Title,
		PageSize: cfg.PageSize,
		BaseURL:  cfg.BaseURL,
		Poll:     cfg.Poll,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Addr) }()

	var serveErr error
	select {
	case serveErr = <-errc:
	case <-ctx.Done():
		log.Printf("Shutting down")
	}

	// Stop the poller before the deferred Close releases the store.
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if serveErr != nil {
		serveErr = fmt.Errorf("server error: %w", serveErr)
	}
	return errors.Join(serveErr, srv.Stop(shutdownCtx))
}

// openStore prefers PostgreSQL when DATABASE_URL is set.
func openStore(cfg config) (database.Store, error) {
	if cfg.DatabaseURL != "" {
		return database.NewPostgres(cfg.DatabaseURL)
	}
	return database.New(cfg.DatabasePath)
}
