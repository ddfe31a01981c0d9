package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Postgres implementa o Store sobre a tabela events. RecordFeedUpdate roda em
// transação própria com lock na linha do evento: updates concorrentes do
// mesmo evento serializam e a checagem monotônica nunca vê estado rasgado.
type Postgres struct {
	db     *sql.DB
	cutoff time.Duration
}

func NewPostgres(db *sql.DB, cutoff time.Duration) *Postgres {
	return &Postgres{db: db, cutoff: cutoff}
}

const eventColumns = `id, feed_event_id, home_team, away_team, start_time, status,
	home_score, away_score, COALESCE(winner,''), is_tie, week, season, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*Event, error) {
	var e Event
	var status string
	err := row.Scan(&e.ID, &e.FeedEventID, &e.HomeTeam, &e.AwayTeam, &e.StartTime, &status,
		&e.HomeScore, &e.AwayScore, &e.Winner, &e.IsTie, &e.Week, &e.Season, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = Status(status)
	return &e, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Event, error) {
	e, err := scanEvent(p.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownEvent
	}
	if err != nil {
		return nil, fmt.Errorf("select event: %w", err)
	}
	return e, nil
}

func (p *Postgres) GetByFeedID(ctx context.Context, feedEventID string) (*Event, error) {
	e, err := scanEvent(p.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE feed_event_id=$1`, feedEventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownEvent
	}
	if err != nil {
		return nil, fmt.Errorf("select event by feed id: %w", err)
	}
	return e, nil
}

func (p *Postgres) ListBettable(ctx context.Context, asOf time.Time) ([]Event, error) {
	// o lock é avaliado na consulta, nunca pré-gravado
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status='SCHEDULED' AND $1 < start_time - make_interval(secs => $2)
		ORDER BY start_time`, asOf, p.cutoff.Seconds())
	if err != nil {
		return nil, fmt.Errorf("select bettable: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (p *Postgres) ListByWeek(ctx context.Context, season, week int) ([]Event, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE season=$1 AND week=$2
		ORDER BY start_time`, season, week)
	if err != nil {
		return nil, fmt.Errorf("select week: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (p *Postgres) RecordFeedUpdate(ctx context.Context, u FeedUpdate) (Result, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cur, err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE feed_event_id=$1 FOR UPDATE`, u.FeedEventID))

	if errors.Is(err, sql.ErrNoRows) {
		// primeiro contato: ingest de agenda cria o evento
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events(id, feed_event_id, home_team, away_team, start_time, status,
				home_score, away_score, winner, is_tie, week, season, created_at, updated_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12,NOW(),NOW())`,
			id, u.FeedEventID, u.HomeTeam, u.AwayTeam, u.StartTime, string(u.Status),
			u.HomeScore, u.AwayScore, u.Winner, u.IsTie, u.Week, u.Season); err != nil {
			return Result{}, fmt.Errorf("insert event: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return Result{}, fmt.Errorf("commit: %w", err)
		}
		return Result{EventID: id, Applied: true, BecameTerminal: u.Status.Terminal()}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("select for update: %w", err)
	}

	apply, becameTerminal, err := transition(cur.Status, u.Status)
	if err != nil {
		return Result{EventID: cur.ID}, err
	}
	if !apply {
		return Result{EventID: cur.ID}, nil
	}

	// update sem start_time (zero) preserva o kickoff já conhecido
	startTime := u.StartTime
	if startTime.IsZero() {
		startTime = cur.StartTime
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET status=$1, home_score=$2, away_score=$3,
			winner=NULLIF($4,''), is_tie=$5, start_time=$6, updated_at=NOW()
		WHERE id=$7`,
		string(u.Status), u.HomeScore, u.AwayScore, u.Winner, u.IsTie, startTime, cur.ID); err != nil {
		return Result{}, fmt.Errorf("update event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return Result{EventID: cur.ID, Applied: true, BecameTerminal: becameTerminal}, nil
}
