package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// PgRunner executa unidades atômicas sobre transações do Postgres.
type PgRunner struct{ db *sql.DB }

func NewPgRunner(db *sql.DB) *PgRunner { return &PgRunner{db: db} }

// WithinTx roda fn dentro de uma transação: commit se fn retornar nil,
// rollback caso contrário.
func (r *PgRunner) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// PgTx extrai o *sql.Tx do handle opaco. Chamar um store Postgres com um
// handle de outro runner é erro de programação.
func PgTx(tx Tx) (*sql.Tx, error) {
	t, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("storage: tx is not a *sql.Tx (%T)", tx)
	}
	return t, nil
}
