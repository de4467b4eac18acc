package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-carpool/internal/model"
)

// EventRepo is the read-only gateway to the external event catalog.
// The engine only checks existence and displays names; rows in the
// events table are maintained by the catalog service.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a repo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// ExistsTx reports whether an event exists, inside the caller's
// transaction.
func (r *EventRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
    var one int
    err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ? LIMIT 1", id).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// GetByID fetches one event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    var ev model.Event
    err := r.db.QueryRowContext(ctx,
        "SELECT id, name, starts_at FROM events WHERE id = ? LIMIT 1", id).
        Scan(&ev.ID, &ev.Name, &ev.StartsAt)
    return ev, err
}

// List returns the catalog ordered by start time, soonest first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, name, starts_at FROM events ORDER BY starts_at")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Event
    for rows.Next() {
        var ev model.Event
        if err := rows.Scan(&ev.ID, &ev.Name, &ev.StartsAt); err != nil {
            return nil, err
        }
        out = append(out, ev)
    }
    return out, rows.Err()
}
