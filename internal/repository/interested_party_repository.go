package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-carpool/internal/model"
)

// InterestedPartyRepo provides persistence for the interested_parties
// table.  A participant holds at most one row at a time; the unique
// index on participant_id backs the lookups performed here.
type InterestedPartyRepo struct {
    db *sql.DB
}

// NewInterestedPartyRepo returns a repo bound to the given database.
func NewInterestedPartyRepo(db *sql.DB) *InterestedPartyRepo {
    return &InterestedPartyRepo{db: db}
}

const interestColumns = "id, participant_id, event_id, latitude, longitude, created_at, updated_at"

func scanInterest(row interface{ Scan(...interface{}) error }) (model.InterestedParty, error) {
    var ip model.InterestedParty
    err := row.Scan(&ip.ID, &ip.ParticipantID, &ip.EventID, &ip.Latitude, &ip.Longitude,
        &ip.CreatedAt, &ip.UpdatedAt)
    return ip, err
}

// GetByID fetches an interest registration outside any transaction.
func (r *InterestedPartyRepo) GetByID(ctx context.Context, id uint64) (model.InterestedParty, error) {
    return scanInterest(r.db.QueryRowContext(ctx,
        "SELECT "+interestColumns+" FROM interested_parties WHERE id = ? LIMIT 1", id))
}

// GetForUpdateTx fetches an interest registration and locks its row so
// a concurrent delete (e.g. the owner becoming a driver) serializes
// against the caller.
func (r *InterestedPartyRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.InterestedParty, error) {
    return scanInterest(tx.QueryRowContext(ctx,
        "SELECT "+interestColumns+" FROM interested_parties WHERE id = ? LIMIT 1 FOR UPDATE", id))
}

// ByParticipantTx returns the participant's active interest, if any.
func (r *InterestedPartyRepo) ByParticipantTx(ctx context.Context, tx *sql.Tx, participantID uint64) (model.InterestedParty, error) {
    return scanInterest(tx.QueryRowContext(ctx,
        "SELECT "+interestColumns+" FROM interested_parties WHERE participant_id = ? LIMIT 1", participantID))
}

// InsertTx stores a new interest registration and populates its ID.
func (r *InterestedPartyRepo) InsertTx(ctx context.Context, tx *sql.Tx, ip *model.InterestedParty) error {
    res, err := tx.ExecContext(ctx,
        "INSERT INTO interested_parties (participant_id, event_id, latitude, longitude) VALUES (?, ?, ?, ?)",
        ip.ParticipantID, ip.EventID, ip.Latitude, ip.Longitude)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ip.ID = uint64(id)
    return nil
}

// UpdateTx persists an edited interest registration (location only;
// owner and event are immutable).
func (r *InterestedPartyRepo) UpdateTx(ctx context.Context, tx *sql.Tx, ip model.InterestedParty) error {
    _, err := tx.ExecContext(ctx,
        "UPDATE interested_parties SET latitude = ?, longitude = ? WHERE id = ?",
        ip.Latitude, ip.Longitude, ip.ID)
    return err
}

// DeleteTx removes an interest registration.  Requests referencing it
// are deleted first by the caller's transaction.
func (r *InterestedPartyRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    _, err := tx.ExecContext(ctx, "DELETE FROM interested_parties WHERE id = ?", id)
    return err
}
