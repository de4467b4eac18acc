package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/model"
)

// MatchStore adapts one variant's repositories to the matching engine's
// Store interface.  It owns the error translation at the boundary
// (sql.ErrNoRows becomes matching.ErrNotFound) and hands the engine a
// Tx wrapper around a real *sql.Tx.  The engine's locking discipline
// maps directly onto the repos' FOR UPDATE queries.
type MatchStore struct {
    db        *sql.DB
    rides     *RideRepo
    requests  *SeatRequestRepo
    interests *InterestedPartyRepo
    events    *EventRepo
}

// NewMatchStore wires a MatchStore for the given variant.
func NewMatchStore(db *sql.DB, v matching.Variant) *MatchStore {
    rides := NewRideRepo(db, v)
    return &MatchStore{
        db:        db,
        rides:     rides,
        requests:  NewSeatRequestRepo(db, rides),
        interests: NewInterestedPartyRepo(db),
        events:    NewEventRepo(db),
    }
}

func notFound(err error) error {
    if errors.Is(err, sql.ErrNoRows) {
        return matching.ErrNotFound
    }
    return err
}

func toModel(rec SeatRequestRecord) model.SeatRequest {
    req := model.SeatRequest{
        ID:                rec.ID,
        RideID:            rec.RideID,
        RequesterID:       rec.RequesterID,
        InterestedPartyID: rec.InterestedPartyID,
        Accepted:          rec.Accepted,
        Latitude:          rec.Latitude,
        Longitude:         rec.Longitude,
    }
    if rec.CreatedAt.Valid {
        req.CreatedAt = rec.CreatedAt.Time
    }
    if rec.UpdatedAt.Valid {
        req.UpdatedAt = rec.UpdatedAt.Time
    }
    return req
}

// Begin opens a database transaction for one engine operation.
func (s *MatchStore) Begin(ctx context.Context) (matching.Tx, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    return &matchTx{tx: tx, store: s}, nil
}

func (s *MatchStore) GetRide(ctx context.Context, rideID uint64) (model.RideOffer, error) {
    ride, err := s.rides.GetByID(ctx, rideID)
    return ride, notFound(err)
}

func (s *MatchStore) ListRides(ctx context.Context, eventID uint64) ([]model.RideOffer, error) {
    return s.rides.List(ctx, eventID)
}

func (s *MatchStore) GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error) {
    rec, err := s.requests.GetByID(ctx, requestID)
    if err != nil {
        return model.SeatRequest{}, notFound(err)
    }
    return toModel(rec), nil
}

func (s *MatchStore) ListRequestsByRide(ctx context.Context, rideID uint64) ([]model.SeatRequest, error) {
    recs, err := s.requests.ListByRide(ctx, rideID)
    if err != nil {
        return nil, err
    }
    out := make([]model.SeatRequest, 0, len(recs))
    for _, rec := range recs {
        out = append(out, toModel(rec))
    }
    return out, nil
}

func (s *MatchStore) GetInterest(ctx context.Context, interestID uint64) (model.InterestedParty, error) {
    ip, err := s.interests.GetByID(ctx, interestID)
    return ip, notFound(err)
}

// matchTx implements matching.Tx over a live *sql.Tx.
type matchTx struct {
    tx    *sql.Tx
    store *MatchStore
}

func (t *matchTx) Commit() error   { return t.tx.Commit() }
func (t *matchTx) Rollback() error { return t.tx.Rollback() }

func (t *matchTx) RideForUpdate(ctx context.Context, rideID uint64) (model.RideOffer, error) {
    ride, err := t.store.rides.GetForUpdateTx(ctx, t.tx, rideID)
    return ride, notFound(err)
}

func (t *matchTx) RideByDriver(ctx context.Context, driverID, eventID uint64) (model.RideOffer, error) {
    ride, err := t.store.rides.ByDriverTx(ctx, t.tx, driverID, eventID)
    return ride, notFound(err)
}

func (t *matchTx) InsertRide(ctx context.Context, ride *model.RideOffer) error {
    return t.store.rides.InsertTx(ctx, t.tx, ride)
}

func (t *matchTx) UpdateRide(ctx context.Context, ride model.RideOffer) error {
    return t.store.rides.UpdateTx(ctx, t.tx, ride)
}

func (t *matchTx) DeleteRide(ctx context.Context, rideID uint64) error {
    return t.store.rides.DeleteTx(ctx, t.tx, rideID)
}

func (t *matchTx) CountAccepted(ctx context.Context, rideID uint64) (int, error) {
    return t.store.requests.CountAcceptedTx(ctx, t.tx, rideID)
}

func (t *matchTx) GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error) {
    rec, err := t.store.requests.GetByIDTx(ctx, t.tx, requestID)
    if err != nil {
        return model.SeatRequest{}, notFound(err)
    }
    return toModel(rec), nil
}

func (t *matchTx) RequestByRequester(ctx context.Context, rideID, requesterID uint64) (model.SeatRequest, error) {
    rec, err := t.store.requests.ByRequesterTx(ctx, t.tx, rideID, requesterID)
    if err != nil {
        return model.SeatRequest{}, notFound(err)
    }
    return toModel(rec), nil
}

func (t *matchTx) InsertRequest(ctx context.Context, req *model.SeatRequest) error {
    rec := SeatRequestRecord{
        RideID:            req.RideID,
        RequesterID:       req.RequesterID,
        InterestedPartyID: req.InterestedPartyID,
        Latitude:          req.Latitude,
        Longitude:         req.Longitude,
    }
    if err := t.store.requests.InsertTx(ctx, t.tx, &rec); err != nil {
        return err
    }
    req.ID = rec.ID
    return nil
}

func (t *matchTx) SetRequestAccepted(ctx context.Context, requestID uint64, accepted bool) error {
    return t.store.requests.SetAcceptedTx(ctx, t.tx, requestID, accepted)
}

func (t *matchTx) UpdateRequestLocation(ctx context.Context, requestID uint64, lat, lng float64) error {
    return t.store.requests.UpdateLocationTx(ctx, t.tx, requestID, lat, lng)
}

func (t *matchTx) DeleteRequest(ctx context.Context, requestID uint64) error {
    return t.store.requests.DeleteTx(ctx, t.tx, requestID)
}

func (t *matchTx) DeletePendingRequests(ctx context.Context, rideID, exceptID uint64) ([]uint64, error) {
    return t.store.requests.DeletePendingTx(ctx, t.tx, rideID, exceptID)
}

func (t *matchTx) DeleteRequestsByRide(ctx context.Context, rideID uint64) error {
    return t.store.requests.DeleteByRideTx(ctx, t.tx, rideID)
}

func (t *matchTx) InterestForUpdate(ctx context.Context, interestID uint64) (model.InterestedParty, error) {
    ip, err := t.store.interests.GetForUpdateTx(ctx, t.tx, interestID)
    return ip, notFound(err)
}

func (t *matchTx) InterestByParticipant(ctx context.Context, participantID uint64) (model.InterestedParty, error) {
    ip, err := t.store.interests.ByParticipantTx(ctx, t.tx, participantID)
    return ip, notFound(err)
}

func (t *matchTx) InsertInterest(ctx context.Context, ip *model.InterestedParty) error {
    return t.store.interests.InsertTx(ctx, t.tx, ip)
}

func (t *matchTx) UpdateInterest(ctx context.Context, ip model.InterestedParty) error {
    return t.store.interests.UpdateTx(ctx, t.tx, ip)
}

func (t *matchTx) DeleteInterest(ctx context.Context, interestID uint64) error {
    return t.store.interests.DeleteTx(ctx, t.tx, interestID)
}

func (t *matchTx) DeleteRequestsByInterest(ctx context.Context, interestID uint64) error {
    return t.store.requests.DeleteByInterestTx(ctx, t.tx, interestID)
}

func (t *matchTx) EventExists(ctx context.Context, eventID uint64) (bool, error) {
    return t.store.events.ExistsTx(ctx, t.tx, eventID)
}
