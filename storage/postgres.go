package storage

import (
	"colorhunt/palette"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var UnexpectedDatabaseError = errors.New("unexpected-database-error")

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// LoadPalette reads the color taxonomy. Playable families keep their position order;
// non-playable families only contribute shade sets.
func (pgr *PostgresRepo) LoadPalette(ctx context.Context) (*palette.Palette, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT name FROM color_families WHERE playable ORDER BY position, name")
	if err != nil {
		return nil, wrapDatabaseError(err)
	}

	var families []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, wrapDatabaseError(err)
		}
		families = append(families, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDatabaseError(err)
	}

	rows, err = pgr.pool.Query(ctx, "SELECT family, shade FROM color_shades")
	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	defer rows.Close()

	shades := map[string][]string{}
	for rows.Next() {
		var family, shade string
		if err := rows.Scan(&family, &shade); err != nil {
			return nil, wrapDatabaseError(err)
		}
		shades[family] = append(shades[family], shade)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDatabaseError(err)
	}

	return palette.New(families, shades)
}

func wrapDatabaseError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
}
