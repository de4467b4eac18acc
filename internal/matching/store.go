package matching

import (
    "context"

    "github.com/iliyamo/event-carpool/internal/model"
)

// Store is the persistence boundary of the engine.  A Store instance is
// bound to one ride variant's tables; the engine never mixes variants
// inside a single operation.  Read methods outside a transaction serve
// the public listing endpoints; everything that mutates state goes
// through Begin and a Tx.
//
// Implementations must return ErrNotFound (or an error wrapping it) when
// an identifier does not resolve.
type Store interface {
    Begin(ctx context.Context) (Tx, error)

    GetRide(ctx context.Context, rideID uint64) (model.RideOffer, error)
    ListRides(ctx context.Context, eventID uint64) ([]model.RideOffer, error)
    GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error)
    ListRequestsByRide(ctx context.Context, rideID uint64) ([]model.SeatRequest, error)
    GetInterest(ctx context.Context, interestID uint64) (model.InterestedParty, error)
}

// Tx is one atomic unit of engine work.  The capacity protocol depends
// on RideForUpdate taking a row-level lock on the ride: every
// transaction that reads the accepted count acquires that lock first, so
// a concurrent transaction's count can never be stale relative to a
// committed accept.  Callers must Commit or Rollback exactly once.
type Tx interface {
    Commit() error
    Rollback() error

    // RideForUpdate loads the ride row and locks it until the
    // transaction ends (SELECT ... FOR UPDATE in the SQL store).
    RideForUpdate(ctx context.Context, rideID uint64) (model.RideOffer, error)
    // RideByDriver reports the driver's active offer in the given
    // context (eventID is 0 for non-event variants), ErrNotFound when
    // the driver has none.
    RideByDriver(ctx context.Context, driverID, eventID uint64) (model.RideOffer, error)
    InsertRide(ctx context.Context, ride *model.RideOffer) error
    UpdateRide(ctx context.Context, ride model.RideOffer) error
    DeleteRide(ctx context.Context, rideID uint64) error

    CountAccepted(ctx context.Context, rideID uint64) (int, error)
    GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error)
    RequestByRequester(ctx context.Context, rideID, requesterID uint64) (model.SeatRequest, error)
    InsertRequest(ctx context.Context, req *model.SeatRequest) error
    SetRequestAccepted(ctx context.Context, requestID uint64, accepted bool) error
    UpdateRequestLocation(ctx context.Context, requestID uint64, lat, lng float64) error
    DeleteRequest(ctx context.Context, requestID uint64) error
    // DeletePendingRequests removes every pending (accepted=false)
    // request for the ride except the one identified by exceptID and
    // returns the removed ids.  This is the cascade prune.
    DeletePendingRequests(ctx context.Context, rideID, exceptID uint64) ([]uint64, error)
    DeleteRequestsByRide(ctx context.Context, rideID uint64) error

    // Interest registry.  Only meaningful for the event-scoped variant;
    // other stores return ErrNotFound from the lookups.
    InterestForUpdate(ctx context.Context, interestID uint64) (model.InterestedParty, error)
    InterestByParticipant(ctx context.Context, participantID uint64) (model.InterestedParty, error)
    InsertInterest(ctx context.Context, ip *model.InterestedParty) error
    UpdateInterest(ctx context.Context, ip model.InterestedParty) error
    DeleteInterest(ctx context.Context, interestID uint64) error
    DeleteRequestsByInterest(ctx context.Context, interestID uint64) error

    EventExists(ctx context.Context, eventID uint64) (bool, error)
}
