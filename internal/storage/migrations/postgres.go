// Package migrations embeds and applies the Postgres and ClickHouse archive schemas.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"raydium-swap-monitor/internal/storage/postgres"
)

// PostgresFiles returns the embedded migration file names in apply order.
func PostgresFiles() ([]string, error) {
	return sqlFiles(PostgresFS, "postgres")
}

func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunPostgresMigrations applies every embedded file in lexical order.
// Files use IF NOT EXISTS and can be applied repeatedly.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := PostgresFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
