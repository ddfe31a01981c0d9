package wagers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

// Postgres implementa o Store sobre a tabela wagers.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const wagerColumns = `id, user_id, event_id, pick, stake_cents, potential_payout_cents,
	realized_payout_cents, status, placed_at, settled_at`

func scanWager(row interface{ Scan(...any) error }) (*Wager, error) {
	var w Wager
	var status string
	var settledAt sql.NullTime
	err := row.Scan(&w.ID, &w.UserID, &w.EventID, &w.Pick, &w.StakeCents,
		&w.PotentialPayoutCents, &w.RealizedPayoutCents, &status, &w.PlacedAt, &settledAt)
	if err != nil {
		return nil, err
	}
	w.Status = Status(status)
	if settledAt.Valid {
		w.SettledAt = &settledAt.Time
	}
	return &w, nil
}

func (p *Postgres) Create(ctx context.Context, tx storage.Tx, w *Wager) error {
	t, err := storage.PgTx(tx)
	if err != nil {
		return err
	}

	_, err = t.ExecContext(ctx, `
		INSERT INTO wagers (id, user_id, event_id, pick, stake_cents,
			potential_payout_cents, realized_payout_cents, status, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,0,$7,$8)`,
		w.ID, w.UserID, w.EventID, w.Pick, w.StakeCents,
		w.PotentialPayoutCents, string(w.Status), w.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert wager: %w", err)
	}
	return nil
}

func (p *Postgres) GetByIDAndUser(ctx context.Context, id, userID string) (*Wager, error) {
	w, err := scanWager(p.db.QueryRowContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE id=$1 AND user_id=$2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownWager
	}
	if err != nil {
		return nil, fmt.Errorf("select wager: %w", err)
	}
	return w, nil
}

func (p *Postgres) ListByUser(ctx context.Context, userID string, status Status, page, perPage int) ([]Wager, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	q := `SELECT ` + wagerColumns + ` FROM wagers WHERE user_id=$1`
	args := []any{userID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, string(status))
	}
	q += fmt.Sprintf(` ORDER BY placed_at DESC LIMIT %d OFFSET %d`, perPage, offset)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select wagers: %w", err)
	}
	defer rows.Close()
	return collectWagers(rows)
}

func (p *Postgres) ListPendingByEvent(ctx context.Context, eventID string) ([]Wager, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+wagerColumns+` FROM wagers WHERE event_id=$1 AND status='PENDING' ORDER BY placed_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select pending wagers: %w", err)
	}
	defer rows.Close()
	return collectWagers(rows)
}

func collectWagers(rows *sql.Rows) ([]Wager, error) {
	var out []Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// TransitionFromPending é o compare-and-set guardado: o WHERE em status
// garante no máximo uma transição terminal por aposta, mesmo sob replays
// concorrentes de liquidação.
func (p *Postgres) TransitionFromPending(ctx context.Context, tx storage.Tx, id string, to Status, realizedCents int64, settledAt time.Time) (bool, error) {
	t, err := storage.PgTx(tx)
	if err != nil {
		return false, err
	}

	res, err := t.ExecContext(ctx, `
		UPDATE wagers
		SET status=$1, realized_payout_cents=$2, settled_at=$3
		WHERE id=$4 AND status='PENDING'`,
		string(to), realizedCents, settledAt, id)
	if err != nil {
		return false, fmt.Errorf("transition wager: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}
