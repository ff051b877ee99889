package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEventsRepo is append-only: there is no update or delete path, on
// purpose.
type AuditEventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAuditEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AuditEventsRepo {
	return &AuditEventsRepo{pool: pool, prom: prom}
}

func (r *AuditEventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *AuditEventsRepo) Insert(ctx context.Context, e audit.Event) error {
	var targetUserID *string
	var targetEmail *string

	if e.Target != nil {
		targetUserID = e.Target.UserID

		if e.Target.Email != "" {
			targetEmail = &e.Target.Email
		}
	}

	return r.observe("audit_events.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO audit_events
				(id, action, actor_user_id, actor_email, target_user_id, target_email, details, ip_address, user_agent, created_at)
	         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, string(e.Action), e.Actor.UserID, e.Actor.Email,
			targetUserID, targetEmail, e.Details, nullIfEmpty(e.IPAddress), nullIfEmpty(e.UserAgent), e.CreatedAt,
		)

		return err
	})
}

const auditSelectColumns = `id, action, actor_user_id, actor_email, target_user_id, target_email, details, ip_address, user_agent, created_at`

func (r *AuditEventsRepo) List(ctx context.Context, filter audit.ListFilter) ([]audit.Event, int, error) {
	baseQuery := `SELECT ` + auditSelectColumns + `,
		COUNT(*) OVER() AS total
	FROM audit_events
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Action != nil {
		conds = append(conds, fmt.Sprintf("action = $%d", argsPosition))
		args = append(args, string(*filter.Action))
		argsPosition++
	}

	if filter.ActorID != nil {
		conds = append(conds, fmt.Sprintf("actor_user_id = $%d", argsPosition))
		args = append(args, *filter.ActorID)
		argsPosition++
	}

	// date bounds are inclusive
	if filter.StartDate != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", argsPosition))
		args = append(args, *filter.StartDate)
		argsPosition++
	}

	if filter.EndDate != nil {
		conds = append(conds, fmt.Sprintf("created_at <= $%d", argsPosition))
		args = append(args, *filter.EndDate)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// newest first, insertion order breaking timestamp ties
	query += fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	output := make([]audit.Event, 0, filter.Limit)
	total := 0

	err := r.observe("audit_events.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			e, t, err := scanEventWithTotal(rows)

			if err != nil {
				return err
			}

			total = t
			output = append(output, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *AuditEventsRepo) GetByID(ctx context.Context, id string) (audit.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+auditSelectColumns+` FROM audit_events WHERE id = $1`, id)

	e, err := scanEvent(row)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.Event{}, audit.ErrNotFound
		}

		return audit.Event{}, err
	}

	return e, nil
}

func (r *AuditEventsRepo) CountByActionSince(ctx context.Context, action audit.Action, since time.Time) (int, error) {
	var n int

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_events WHERE action = $1 AND created_at >= $2`,
		string(action), since,
	).Scan(&n)

	return n, err
}

func (r *AuditEventsRepo) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditSelectColumns+`
         FROM audit_events
         ORDER BY created_at DESC, seq DESC
         LIMIT $1`,
		limit,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]audit.Event, 0, limit)

	for rows.Next() {
		e, err := scanEvent(rows)

		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (audit.Event, error) {
	var e audit.Event
	var action string
	var targetUserID, targetEmail *string
	var ipAddress, userAgent *string

	err := row.Scan(
		&e.ID, &action, &e.Actor.UserID, &e.Actor.Email,
		&targetUserID, &targetEmail, &e.Details, &ipAddress, &userAgent, &e.CreatedAt,
	)

	if err != nil {
		return audit.Event{}, err
	}

	e.Action = audit.Action(action)

	if targetUserID != nil || targetEmail != nil {
		t := &audit.Target{UserID: targetUserID}

		if targetEmail != nil {
			t.Email = *targetEmail
		}

		e.Target = t
	}

	if ipAddress != nil {
		e.IPAddress = *ipAddress
	}

	if userAgent != nil {
		e.UserAgent = *userAgent
	}

	return e, nil
}

func scanEventWithTotal(rows pgx.Rows) (audit.Event, int, error) {
	var e audit.Event
	var action string
	var targetUserID, targetEmail *string
	var ipAddress, userAgent *string
	var total int

	err := rows.Scan(
		&e.ID, &action, &e.Actor.UserID, &e.Actor.Email,
		&targetUserID, &targetEmail, &e.Details, &ipAddress, &userAgent, &e.CreatedAt,
		&total,
	)

	if err != nil {
		return audit.Event{}, 0, err
	}

	e.Action = audit.Action(action)

	if targetUserID != nil || targetEmail != nil {
		t := &audit.Target{UserID: targetUserID}

		if targetEmail != nil {
			t.Email = *targetEmail
		}

		e.Target = t
	}

	if ipAddress != nil {
		e.IPAddress = *ipAddress
	}

	if userAgent != nil {
		e.UserAgent = *userAgent
	}

	return e, total, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
