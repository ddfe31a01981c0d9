package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

// Postgres implementa o Ledger sobre as tabelas users e ledger_entries.
// O lock pessimista na linha do usuário serializa deltas concorrentes por
// usuário; usuários distintos seguem independentes.
type Postgres struct {
	db            *sql.DB
	startingCents int64
}

func NewPostgres(db *sql.DB, startingCents int64) *Postgres {
	return &Postgres{db: db, startingCents: startingCents}
}

func (p *Postgres) EnsureUser(ctx context.Context, tx storage.Tx, userID string) (int64, error) {
	t, err := storage.PgTx(tx)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = t.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE id=$1`, userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select user: %w", err)
	}

	if _, err := t.ExecContext(ctx,
		`INSERT INTO users(id, balance_cents, created_at) VALUES($1,$2,NOW())`,
		userID, p.startingCents); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if _, err := t.ExecContext(ctx, `
		INSERT INTO ledger_entries(id, user_id, amount_cents, balance_after_cents, reason, created_at)
		VALUES($1,$2,$3,$4,'signup:starting-balance',NOW())`,
		uuid.NewString(), userID, p.startingCents, p.startingCents); err != nil {
		return 0, fmt.Errorf("insert signup entry: %w", err)
	}

	return p.startingCents, nil
}

func (p *Postgres) ApplyDelta(ctx context.Context, tx storage.Tx, userID string, amountCents int64, reason string) (int64, error) {
	t, err := storage.PgTx(tx)
	if err != nil {
		return 0, err
	}

	// Lock na linha do usuário: deltas sobre o mesmo usuário serializam aqui
	var balance int64
	err = t.QueryRowContext(ctx,
		`SELECT balance_cents FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownUser
	}
	if err != nil {
		return 0, fmt.Errorf("lock user: %w", err)
	}

	newBalance := balance + amountCents
	if newBalance < 0 {
		return 0, ErrInsufficientFunds
	}

	if _, err := t.ExecContext(ctx,
		`UPDATE users SET balance_cents=$1 WHERE id=$2`, newBalance, userID); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}

	if _, err := t.ExecContext(ctx, `
		INSERT INTO ledger_entries(id, user_id, amount_cents, balance_after_cents, reason, created_at)
		VALUES($1,$2,$3,$4,$5,NOW())`,
		uuid.NewString(), userID, amountCents, newBalance, reason); err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	return newBalance, nil
}

func (p *Postgres) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM users WHERE id=$1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownUser
	}
	if err != nil {
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

func (p *Postgres) Entries(ctx context.Context, userID string, limit int) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, balance_after_cents, reason, created_at
		FROM ledger_entries
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.AmountCents, &e.BalanceAfterCents, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
