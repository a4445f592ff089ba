package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chatkit/push-dispatch-go/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the dispatcher schema. Statements are idempotent and run in
// one transaction, so running at every startup is safe.
func Migrate(ctx context.Context, db *database.DB) error {
	return WithTransaction(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
}
