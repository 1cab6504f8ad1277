// Package migrations applies the embedded schema for the SQL backends.
package migrations

import (
	"embed"
	"sort"
	"strings"
)

// PostgresFS embeds the PostgreSQL migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// sqlFiles lists the .sql files of dir in fsys in lexical order.
func sqlFiles(fsys embed.FS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
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
