package main

import (
	"os"

	"github.com/anjankaur/shazam-for-gurbani/internal/catalog"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/identify"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/internal/storage"
	"github.com/anjankaur/shazam-for-gurbani/pkg/logger"
)

func main() {
	log := logger.GetLogger()
	cfg := config.Load()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer storage.Close(db)

	idx, err := index.New(db)
	if err != nil {
		log.Errorf("Failed to initialize fingerprint index: %v", err)
		os.Exit(1)
	}
	resolver, err := metadata.NewResolver(db)
	if err != nil {
		log.Errorf("Failed to initialize metadata resolver: %v", err)
		os.Exit(1)
	}

	service := identify.NewService(idx, resolver, cfg)
	cat := catalog.NewClient(cfg.CatalogURL)

	server := NewServer(service, idx, resolver, cat, cfg)
	if err := server.Start(); err != nil {
		log.Errorf("Server stopped: %v", err)
		os.Exit(1)
	}
}
