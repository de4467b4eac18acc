package repository

import (
    "context"
    "database/sql"
    "fmt"
)

// SeatRequestRecord mirrors the schema of a request table.  Business
// logic should use the model.SeatRequest type instead; the repository
// converts at the boundary because the interested_party_id column only
// exists on the event variant's table.
type SeatRequestRecord struct {
    ID                uint64
    RideID            uint64
    RequesterID       uint64
    InterestedPartyID uint64
    Accepted          bool
    Latitude          float64
    Longitude         float64
    CreatedAt         sql.NullTime
    UpdatedAt         sql.NullTime
}

// SeatRequestRepo provides persistence for one ride variant's request
// table.  The uniqueness of (ride_id, requester_id) is enforced both
// here (lookups before insert run under the ride row lock) and by a
// unique index on the table.
type SeatRequestRepo struct {
    tables      Tables
    eventScoped bool
    db          *sql.DB
}

// NewSeatRequestRepo binds a SeatRequestRepo to the tables of the
// variant backing the given ride repository.
func NewSeatRequestRepo(db *sql.DB, rides *RideRepo) *SeatRequestRepo {
    return &SeatRequestRepo{db: db, tables: rides.tables, eventScoped: rides.eventScoped}
}

func (r *SeatRequestRepo) columns() string {
    if r.eventScoped {
        return "id, ride_id, requester_id, interested_party_id, accepted, latitude, longitude, created_at, updated_at"
    }
    return "id, ride_id, requester_id, accepted, latitude, longitude, created_at, updated_at"
}

func (r *SeatRequestRepo) scan(row interface{ Scan(...interface{}) error }) (SeatRequestRecord, error) {
    var rec SeatRequestRecord
    var err error
    if r.eventScoped {
        err = row.Scan(&rec.ID, &rec.RideID, &rec.RequesterID, &rec.InterestedPartyID, &rec.Accepted,
            &rec.Latitude, &rec.Longitude, &rec.CreatedAt, &rec.UpdatedAt)
    } else {
        err = row.Scan(&rec.ID, &rec.RideID, &rec.RequesterID, &rec.Accepted,
            &rec.Latitude, &rec.Longitude, &rec.CreatedAt, &rec.UpdatedAt)
    }
    return rec, err
}

// GetByID fetches a request outside any transaction.
func (r *SeatRequestRepo) GetByID(ctx context.Context, id uint64) (SeatRequestRecord, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", r.columns(), r.tables.Requests)
    return r.scan(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx fetches a request inside the caller's transaction.
func (r *SeatRequestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (SeatRequestRecord, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", r.columns(), r.tables.Requests)
    return r.scan(tx.QueryRowContext(ctx, q, id))
}

// ByRequesterTx returns the requester's request for a ride, if any.
func (r *SeatRequestRepo) ByRequesterTx(ctx context.Context, tx *sql.Tx, rideID, requesterID uint64) (SeatRequestRecord, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE ride_id = ? AND requester_id = ? LIMIT 1", r.columns(), r.tables.Requests)
    return r.scan(tx.QueryRowContext(ctx, q, rideID, requesterID))
}

// ListByRide returns all requests for a ride, pending first.
func (r *SeatRequestRepo) ListByRide(ctx context.Context, rideID uint64) ([]SeatRequestRecord, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE ride_id = ? ORDER BY accepted, id", r.columns(), r.tables.Requests)
    rows, err := r.db.QueryContext(ctx, q, rideID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []SeatRequestRecord
    for rows.Next() {
        rec, err := r.scan(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}

// CountAcceptedTx counts the accepted requests of a ride.  Callers must
// hold the ride row lock so the count cannot go stale before they act
// on it.
func (r *SeatRequestRepo) CountAcceptedTx(ctx context.Context, tx *sql.Tx, rideID uint64) (int, error) {
    q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE ride_id = ? AND accepted = 1", r.tables.Requests)
    var n int
    err := tx.QueryRowContext(ctx, q, rideID).Scan(&n)
    return n, err
}

// InsertTx stores a new pending request and populates its generated ID.
func (r *SeatRequestRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec *SeatRequestRecord) error {
    var res sql.Result
    var err error
    if r.eventScoped {
        q := fmt.Sprintf(`INSERT INTO %s (ride_id, requester_id, interested_party_id, accepted, latitude, longitude)
                          VALUES (?, ?, ?, 0, ?, ?)`, r.tables.Requests)
        res, err = tx.ExecContext(ctx, q, rec.RideID, rec.RequesterID, rec.InterestedPartyID, rec.Latitude, rec.Longitude)
    } else {
        q := fmt.Sprintf(`INSERT INTO %s (ride_id, requester_id, accepted, latitude, longitude)
                          VALUES (?, ?, 0, ?, ?)`, r.tables.Requests)
        res, err = tx.ExecContext(ctx, q, rec.RideID, rec.RequesterID, rec.Latitude, rec.Longitude)
    }
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// SetAcceptedTx flips the accepted flag on a request.
func (r *SeatRequestRepo) SetAcceptedTx(ctx context.Context, tx *sql.Tx, id uint64, accepted bool) error {
    q := fmt.Sprintf("UPDATE %s SET accepted = ? WHERE id = ?", r.tables.Requests)
    _, err := tx.ExecContext(ctx, q, accepted, id)
    return err
}

// UpdateLocationTx updates the pickup hint of a request.
func (r *SeatRequestRepo) UpdateLocationTx(ctx context.Context, tx *sql.Tx, id uint64, lat, lng float64) error {
    q := fmt.Sprintf("UPDATE %s SET latitude = ?, longitude = ? WHERE id = ?", r.tables.Requests)
    _, err := tx.ExecContext(ctx, q, lat, lng, id)
    return err
}

// DeleteTx removes a single request row.
func (r *SeatRequestRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.tables.Requests)
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// DeletePendingTx removes every pending request for a ride except the
// given one and returns the IDs that were removed, so callers can
// notify the pruned riders.  This runs as part of the same transaction
// as the accept that filled the ride.
func (r *SeatRequestRepo) DeletePendingTx(ctx context.Context, tx *sql.Tx, rideID, exceptID uint64) ([]uint64, error) {
    sel := fmt.Sprintf("SELECT id FROM %s WHERE ride_id = ? AND accepted = 0 AND id <> ?", r.tables.Requests)
    rows, err := tx.QueryContext(ctx, sel, rideID, exceptID)
    if err != nil {
        return nil, err
    }
    var ids []uint64
    for rows.Next() {
        var id uint64
        if scanErr := rows.Scan(&id); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        ids = append(ids, id)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if len(ids) == 0 {
        return []uint64{}, nil
    }
    del := fmt.Sprintf("DELETE FROM %s WHERE ride_id = ? AND accepted = 0 AND id <> ?", r.tables.Requests)
    if _, err := tx.ExecContext(ctx, del, rideID, exceptID); err != nil {
        return nil, err
    }
    return ids, nil
}

// DeleteByRideTx removes all requests of a ride (cascade on ride
// deletion).
func (r *SeatRequestRepo) DeleteByRideTx(ctx context.Context, tx *sql.Tx, rideID uint64) error {
    q := fmt.Sprintf("DELETE FROM %s WHERE ride_id = ?", r.tables.Requests)
    _, err := tx.ExecContext(ctx, q, rideID)
    return err
}

// DeleteByInterestTx removes all requests backed by an interest
// registration (event variant only; a no-op table-wise for the others,
// which never set interested_party_id).
func (r *SeatRequestRepo) DeleteByInterestTx(ctx context.Context, tx *sql.Tx, interestID uint64) error {
    if !r.eventScoped {
        return nil
    }
    q := fmt.Sprintf("DELETE FROM %s WHERE interested_party_id = ?", r.tables.Requests)
    _, err := tx.ExecContext(ctx, q, interestID)
    return err
}
