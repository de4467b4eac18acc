package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/model"
)

// RideRepo provides persistence for one ride variant's offer table.
// The event_rides table carries an extra event_id column; the generic
// and special tables do not, so the column list is assembled per
// variant.  All timestamps are stored in UTC.
type RideRepo struct {
    db          *sql.DB
    tables      Tables
    eventScoped bool
}

// NewRideRepo binds a RideRepo to the tables of the given variant.
func NewRideRepo(db *sql.DB, v matching.Variant) *RideRepo {
    return &RideRepo{db: db, tables: tablesFor(v), eventScoped: v.EventScoped}
}

func (r *RideRepo) columns() string {
    if r.eventScoped {
        return "id, driver_id, event_id, empty_seats, starts_at, description, vehicle_description, latitude, longitude, created_at, updated_at"
    }
    return "id, driver_id, empty_seats, starts_at, description, vehicle_description, latitude, longitude, created_at, updated_at"
}

func (r *RideRepo) scan(row interface{ Scan(...interface{}) error }) (model.RideOffer, error) {
    var ride model.RideOffer
    var err error
    if r.eventScoped {
        err = row.Scan(&ride.ID, &ride.DriverID, &ride.EventID, &ride.EmptySeats, &ride.StartsAt,
            &ride.Description, &ride.VehicleDescription, &ride.Latitude, &ride.Longitude,
            &ride.CreatedAt, &ride.UpdatedAt)
    } else {
        err = row.Scan(&ride.ID, &ride.DriverID, &ride.EmptySeats, &ride.StartsAt,
            &ride.Description, &ride.VehicleDescription, &ride.Latitude, &ride.Longitude,
            &ride.CreatedAt, &ride.UpdatedAt)
    }
    return ride, err
}

// GetByID fetches a ride offer outside any transaction.
func (r *RideRepo) GetByID(ctx context.Context, id uint64) (model.RideOffer, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", r.columns(), r.tables.Rides)
    return r.scan(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx fetches a ride offer and locks its row until the
// transaction ends.  Every transaction that reads the accepted count
// must call this first; the row lock is what serializes concurrent
// accepts against the same ride.
func (r *RideRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.RideOffer, error) {
    q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", r.columns(), r.tables.Rides)
    return r.scan(tx.QueryRowContext(ctx, q, id))
}

// ByDriverTx returns the driver's active offer in the given context.
// For the event variant the context is the event; otherwise a driver
// may hold at most one offer overall and eventID is ignored.
func (r *RideRepo) ByDriverTx(ctx context.Context, tx *sql.Tx, driverID, eventID uint64) (model.RideOffer, error) {
    if r.eventScoped {
        q := fmt.Sprintf("SELECT %s FROM %s WHERE driver_id = ? AND event_id = ? LIMIT 1", r.columns(), r.tables.Rides)
        return r.scan(tx.QueryRowContext(ctx, q, driverID, eventID))
    }
    q := fmt.Sprintf("SELECT %s FROM %s WHERE driver_id = ? LIMIT 1", r.columns(), r.tables.Rides)
    return r.scan(tx.QueryRowContext(ctx, q, driverID))
}

// List returns ride offers ordered by departure time.  For the event
// variant a non-zero eventID restricts the listing to that event.
func (r *RideRepo) List(ctx context.Context, eventID uint64) ([]model.RideOffer, error) {
    q := fmt.Sprintf("SELECT %s FROM %s", r.columns(), r.tables.Rides)
    args := []interface{}{}
    if r.eventScoped && eventID != 0 {
        q += " WHERE event_id = ?"
        args = append(args, eventID)
    }
    q += " ORDER BY starts_at"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.RideOffer
    for rows.Next() {
        ride, err := r.scan(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, ride)
    }
    return out, rows.Err()
}

// InsertTx stores a new ride offer and populates its generated ID.
func (r *RideRepo) InsertTx(ctx context.Context, tx *sql.Tx, ride *model.RideOffer) error {
    var res sql.Result
    var err error
    if r.eventScoped {
        q := fmt.Sprintf(`INSERT INTO %s (driver_id, event_id, empty_seats, starts_at, description, vehicle_description, latitude, longitude)
                          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.tables.Rides)
        res, err = tx.ExecContext(ctx, q, ride.DriverID, ride.EventID, ride.EmptySeats, ride.StartsAt.UTC(),
            ride.Description, ride.VehicleDescription, ride.Latitude, ride.Longitude)
    } else {
        q := fmt.Sprintf(`INSERT INTO %s (driver_id, empty_seats, starts_at, description, vehicle_description, latitude, longitude)
                          VALUES (?, ?, ?, ?, ?, ?, ?)`, r.tables.Rides)
        res, err = tx.ExecContext(ctx, q, ride.DriverID, ride.EmptySeats, ride.StartsAt.UTC(),
            ride.Description, ride.VehicleDescription, ride.Latitude, ride.Longitude)
    }
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ride.ID = uint64(id)
    return nil
}

// UpdateTx persists an edited ride offer.  The driver and event
// references are immutable and never written here.
func (r *RideRepo) UpdateTx(ctx context.Context, tx *sql.Tx, ride model.RideOffer) error {
    q := fmt.Sprintf(`UPDATE %s SET empty_seats = ?, starts_at = ?, description = ?, vehicle_description = ?, latitude = ?, longitude = ?
                      WHERE id = ?`, r.tables.Rides)
    _, err := tx.ExecContext(ctx, q, ride.EmptySeats, ride.StartsAt.UTC(), ride.Description,
        ride.VehicleDescription, ride.Latitude, ride.Longitude, ride.ID)
    return err
}

// DeleteTx removes a ride offer row.  Seat requests are deleted
// separately (and first) by the caller's transaction.
func (r *RideRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.tables.Rides)
    _, err := tx.ExecContext(ctx, q, id)
    return err
}
