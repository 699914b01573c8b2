package migrations

import (
	"context"
	"fmt"

	"dex-info-search/internal/storage/postgres"
)

// Postgres applies the embedded catalog, watchlist and prompt schema.
// Each file runs as one multi-statement Exec; files must be idempotent.
func Postgres(ctx context.Context, pool *postgres.Pool) error {
	migs, err := load(PostgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("load postgres migrations: %w", err)
	}
	return apply(ctx, migs, func(ctx context.Context, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
}
