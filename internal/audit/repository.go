package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides persistence for auth events.
type Repository interface {
	Insert(ctx context.Context, event Event) error
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const eventColumns = `id, kind, outcome, email, user_id, occurred_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert stores one event.
func (r *PGRepository) Insert(ctx context.Context, event Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Kind, event.Outcome, event.Email, event.UserID, event.OccurredAt,
	)
	return err
}

// TimelineWindow returns one page of events, newest first.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argPos))
		args = append(args, filters.Kind)
		argPos++
	}
	if filters.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argPos))
		args = append(args, filters.Email)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	query := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM auth_events
		%s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Outcome, &e.Email, &e.UserID, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events older than the cutoff and reports how many
// rows went away.
func (r *PGRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
