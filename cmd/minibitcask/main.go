// Command minibitcask starts an interactive session over an embedded
// minibitcask store and its MVCC transaction layer.
package main

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aether-db/minibitcask/internal/cli"
	"github.com/aether-db/minibitcask/internal/config"
	"github.com/aether-db/minibitcask/internal/mvcc"
	"github.com/aether-db/minibitcask/internal/store"
)

func main() {
	slogHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo, // Change to LevelDebug for verbose logging
	})
	logger := slog.New(slogHandler)
	slog.SetDefault(logger)

	slog.Info("main: loading configuration")
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("main: failed to load configuration", "error", err)
		log.Fatalf("Failed to load config: %v", err)
	}
	slog.Info("main: configuration loaded successfully",
		"data_dir", cfg.DATA_DIR,
		"log_file_name", cfg.LOG_FILE_NAME,
	)

	logPath := filepath.Join(cfg.DATA_DIR, cfg.LOG_FILE_NAME)
	s, err := store.New(logPath)
	if err != nil {
		slog.Error("main: failed to open store", "path", logPath, "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("main: error closing store", "error", err)
		}
	}()

	slog.Info("main: store opened", "path", logPath, "keys", s.Len())

	// The MVCC layer runs over its own in-memory ordered backing,
	// independent of the on-disk store, per spec: transactional
	// durability coordination between the two is out of scope.
	manager := mvcc.NewManager(mvcc.NewBTreeBacking())

	slog.Info("main: minibitcask started successfully")

	cliHandler := cli.NewHandler(s, manager)
	if err := cliHandler.Run(); err != nil {
		slog.Error("main: CLI handler error", "error", err)
		log.Fatalf("CLI error: %v", err)
	}
}
