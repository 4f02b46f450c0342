package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, e *Executor) error {
	// no args: pgx sends it over the simple protocol, which accepts several statements
	if _, err := e.Exec(ctx, Statement{SQL: schema, Timeout: -1}); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
