package migrations

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	chstore "dex-info-search/internal/storage/clickhouse"
)

var identifierRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Clickhouse creates the DSN's database when missing, applies the embedded
// snapshot schema and returns a connection to that database.
func Clickhouse(ctx context.Context, dsn string) (*chstore.Conn, error) {
	db, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureDatabase(ctx, dsn, db); err != nil {
		return nil, err
	}

	migs, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, fmt.Errorf("load clickhouse migrations: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, db)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse %s: %w", db, err)
	}
	// The native protocol takes one statement per Exec.
	exec := perStatement(func(ctx context.Context, stmt string) error { return conn.Exec(ctx, stmt) })
	if err := apply(ctx, migs, exec); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ensureDatabase(ctx context.Context, dsn, db string) error {
	if !identifierRE.MatchString(db) {
		return fmt.Errorf("invalid clickhouse database name %q", db)
	}
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+db); err != nil {
		return fmt.Errorf("create database %s: %w", db, err)
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		return db, nil
	}
	return "", fmt.Errorf("clickhouse dsn %q has no database", u.Redacted())
}
