package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"

	"github.com/sail-placements/sail/internal/config"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// currentUser returns the name recorded in import audit entries.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// expandFileArgs resolves each argument as a literal path or a glob pattern,
// returning a sorted, de-duplicated file list.
func expandFileArgs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}
