package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	chstore "pool-sniper/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the DSN's database if needed and applies the
// embedded SQL files. The statements are idempotent, so every file runs on
// every start. Returns a connection to the target database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	adminConn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := adminConn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		adminConn.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := adminConn.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	if err := ApplyClickhouse(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// ApplyClickhouse runs every embedded ClickHouse statement on conn.
func ApplyClickhouse(ctx context.Context, conn *chstore.Conn) error {
	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		return fmt.Errorf("read embedded clickhouse migrations: %w", err)
	}

	for _, file := range files {
		data, err := ClickhouseFS.ReadFile("clickhouse/" + file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmts, err := splitStatements(string(data))
		if err != nil {
			return fmt.Errorf("migration %s: %w", file, err)
		}
		// the native protocol runs one statement per Exec
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}
	return nil
}

var errSemicolonInString = errors.New("semicolon inside string literal")

// splitStatements drops -- comment lines and splits on semicolons. Semicolons
// inside single-quoted strings are rejected rather than handled.
func splitStatements(input string) ([]string, error) {
	var lines []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}
	joined := strings.Join(lines, "\n")

	inString := false
	for i := 0; i < len(joined); i++ {
		switch joined[i] {
		case '\'':
			if inString && i+1 < len(joined) && joined[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return nil, errSemicolonInString
			}
		}
	}

	var stmts []string
	for _, part := range strings.Split(joined, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	return db, nil
}
