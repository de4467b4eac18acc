package matching

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/event-carpool/internal/model"
)

// Coordinator executes every state transition of one ride variant:
// offer lifecycle, seat request matching and the interest registry.  It
// is the only writer of ride and request rows; each public method opens
// a single transaction on the bound store and commits or rolls back as
// a unit, so no partial mutation is ever visible.
type Coordinator struct {
    store   Store
    variant Variant
    clock   func() time.Time
}

// NewCoordinator binds the engine to a variant and its store.
func NewCoordinator(store Store, variant Variant) *Coordinator {
    if store == nil {
        panic("nil store passed to NewCoordinator")
    }
    return &Coordinator{
        store:   store,
        variant: variant,
        clock:   func() time.Time { return time.Now().UTC() },
    }
}

// Variant reports the ride flavor this coordinator serves.
func (co *Coordinator) Variant() Variant { return co.variant }

// RideSpec carries the driver-supplied fields for a new ride offer.
type RideSpec struct {
    EventID            uint64
    EmptySeats         uint32
    StartsAt           time.Time
    Description        string
    VehicleDescription string
    Latitude           float64
    Longitude          float64
}

// RidePatch carries optional updates to a ride offer.  Nil fields are
// left untouched.
type RidePatch struct {
    EmptySeats         *uint32
    StartsAt           *time.Time
    Description        *string
    VehicleDescription *string
    Latitude           *float64
    Longitude          *float64
}

func (p RidePatch) empty() bool {
    return p.EmptySeats == nil && p.StartsAt == nil && p.Description == nil &&
        p.VehicleDescription == nil && p.Latitude == nil && p.Longitude == nil
}

// Location is a latitude/longitude pair used as a pickup hint.
type Location struct {
    Latitude  float64
    Longitude float64
}

// Decision reports the outcome of an accept or decline.  When the
// accept filled the last seat, Filled is true and PrunedRequestIDs
// lists every competing pending request that was deleted in the same
// transaction.
type Decision struct {
    Request          model.SeatRequest
    Ride             model.RideOffer
    Filled           bool
    PrunedRequestIDs []uint64
}

// CreateRide publishes a new ride offer for the acting participant.
// It fails with ErrConflict when the actor already offers a ride in the
// same context (the same event for event rides, any active offer
// otherwise) and, for event rides, with ErrNotFound when the event does
// not exist in the catalog.  Becoming a driver ends the actor's own
// seat-seeking: their InterestedParty row and the requests referencing
// it are removed in the same transaction.
func (co *Coordinator) CreateRide(ctx context.Context, actorID uint64, spec RideSpec) (model.RideOffer, error) {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.RideOffer{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    eventID := uint64(0)
    if co.variant.EventScoped {
        eventID = spec.EventID
        ok, err := tx.EventExists(ctx, eventID)
        if err != nil {
            return model.RideOffer{}, err
        }
        if !ok {
            return model.RideOffer{}, ErrNotFound
        }
    }
    if _, err := tx.RideByDriver(ctx, actorID, eventID); err == nil {
        return model.RideOffer{}, ErrConflict
    } else if !errors.Is(err, ErrNotFound) {
        return model.RideOffer{}, err
    }
    if co.variant.EventScoped {
        // The driver stops being an interested party; requests backed
        // by that registration must not survive it.
        ip, err := tx.InterestByParticipant(ctx, actorID)
        switch {
        case err == nil:
            if err := tx.DeleteRequestsByInterest(ctx, ip.ID); err != nil {
                return model.RideOffer{}, err
            }
            if err := tx.DeleteInterest(ctx, ip.ID); err != nil {
                return model.RideOffer{}, err
            }
        case errors.Is(err, ErrNotFound):
        default:
            return model.RideOffer{}, err
        }
    }

    now := co.clock()
    ride := model.RideOffer{
        DriverID:           actorID,
        EventID:            eventID,
        EmptySeats:         spec.EmptySeats,
        StartsAt:           spec.StartsAt,
        Description:        spec.Description,
        VehicleDescription: spec.VehicleDescription,
        Latitude:           spec.Latitude,
        Longitude:          spec.Longitude,
        CreatedAt:          now,
        UpdatedAt:          now,
    }
    if err := tx.InsertRide(ctx, &ride); err != nil {
        return model.RideOffer{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.RideOffer{}, err
    }
    committed = true
    return ride, nil
}

// PatchRide applies a driver's edit.  Shrinking the capacity below the
// current accepted count is rejected with ErrConflict: the engine never
// strands riders the driver already accepted, and it never auto-declines
// them either.  An empty patch fails with ErrNothingToPatch.
func (co *Coordinator) PatchRide(ctx context.Context, actorID, rideID uint64, patch RidePatch) (model.RideOffer, error) {
    if patch.empty() {
        return model.RideOffer{}, ErrNothingToPatch
    }
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.RideOffer{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ride, err := tx.RideForUpdate(ctx, rideID)
    if err != nil {
        return model.RideOffer{}, err
    }
    if err := Authorize(actorID, ride, nil, ActionPatchRide); err != nil {
        return model.RideOffer{}, err
    }
    if patch.EmptySeats != nil {
        accepted, err := tx.CountAccepted(ctx, rideID)
        if err != nil {
            return model.RideOffer{}, err
        }
        if int(*patch.EmptySeats) < accepted {
            return model.RideOffer{}, ErrConflict
        }
        ride.EmptySeats = *patch.EmptySeats
    }
    if patch.StartsAt != nil {
        ride.StartsAt = *patch.StartsAt
    }
    if patch.Description != nil {
        ride.Description = *patch.Description
    }
    if patch.VehicleDescription != nil {
        ride.VehicleDescription = *patch.VehicleDescription
    }
    if patch.Latitude != nil {
        ride.Latitude = *patch.Latitude
    }
    if patch.Longitude != nil {
        ride.Longitude = *patch.Longitude
    }
    ride.UpdatedAt = co.clock()
    if err := tx.UpdateRide(ctx, ride); err != nil {
        return model.RideOffer{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.RideOffer{}, err
    }
    committed = true
    return ride, nil
}

// DeleteRide removes a ride offer and cascades deletion of every seat
// request attached to it.  Driver only.
func (co *Coordinator) DeleteRide(ctx context.Context, actorID, rideID uint64) error {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ride, err := tx.RideForUpdate(ctx, rideID)
    if err != nil {
        return err
    }
    if err := Authorize(actorID, ride, nil, ActionDeleteRide); err != nil {
        return err
    }
    if err := tx.DeleteRequestsByRide(ctx, rideID); err != nil {
        return err
    }
    if err := tx.DeleteRide(ctx, rideID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetRide returns a single ride offer.
func (co *Coordinator) GetRide(ctx context.Context, rideID uint64) (model.RideOffer, error) {
    return co.store.GetRide(ctx, rideID)
}

// ListRides returns ride offers, optionally scoped to an event for the
// event-ride variant (eventID 0 lists everything).
func (co *Coordinator) ListRides(ctx context.Context, eventID uint64) ([]model.RideOffer, error) {
    return co.store.ListRides(ctx, eventID)
}

// ListRequests returns the seat requests attached to a ride.
func (co *Coordinator) ListRequests(ctx context.Context, rideID uint64) ([]model.SeatRequest, error) {
    if _, err := co.store.GetRide(ctx, rideID); err != nil {
        return nil, err
    }
    return co.store.ListRequestsByRide(ctx, rideID)
}

// CreateRequest files a pending seat request by the acting participant.
// Inside one transaction it verifies, in order: the ride exists, the
// actor is not the driver, the actor has no request for this ride yet,
// the event-ride prerequisite (an InterestedParty registration for the
// same event) holds, and the ride still has a free seat.
func (co *Coordinator) CreateRequest(ctx context.Context, actorID, rideID uint64, loc Location) (model.SeatRequest, error) {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.SeatRequest{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ride, err := tx.RideForUpdate(ctx, rideID)
    if err != nil {
        return model.SeatRequest{}, err
    }
    if actorID == ride.DriverID {
        return model.SeatRequest{}, ErrConflict
    }
    if _, err := tx.RequestByRequester(ctx, rideID, actorID); err == nil {
        return model.SeatRequest{}, ErrConflict
    } else if !errors.Is(err, ErrNotFound) {
        return model.SeatRequest{}, err
    }
    interestID := uint64(0)
    if co.variant.EventScoped {
        ip, err := tx.InterestByParticipant(ctx, actorID)
        if err != nil {
            return model.SeatRequest{}, err
        }
        if ip.EventID != ride.EventID {
            return model.SeatRequest{}, ErrNotFound
        }
        interestID = ip.ID
    }
    accepted, err := tx.CountAccepted(ctx, rideID)
    if err != nil {
        return model.SeatRequest{}, err
    }
    if accepted >= int(ride.EmptySeats) {
        return model.SeatRequest{}, ErrRideFull
    }

    now := co.clock()
    req := model.SeatRequest{
        RideID:            rideID,
        RequesterID:       actorID,
        InterestedPartyID: interestID,
        Latitude:          loc.Latitude,
        Longitude:         loc.Longitude,
        CreatedAt:         now,
        UpdatedAt:         now,
    }
    if err := tx.InsertRequest(ctx, &req); err != nil {
        return model.SeatRequest{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.SeatRequest{}, err
    }
    committed = true
    return req, nil
}

// SetAccepted is the driver's accept/decline.  The whole protocol runs
// against the locked ride row: recount, compare, mutate, and on the
// accept that fills the last seat, prune every other pending request in
// the same transaction.  Two concurrent accepts on the last seat
// therefore serialize, and the loser's recount fails with ErrRideFull.
func (co *Coordinator) SetAccepted(ctx context.Context, actorID, requestID uint64, accepted bool) (Decision, error) {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return Decision{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    req, err := tx.GetRequest(ctx, requestID)
    if err != nil {
        return Decision{}, err
    }
    ride, err := tx.RideForUpdate(ctx, req.RideID)
    if err != nil {
        return Decision{}, err
    }
    // The request may have been pruned while we waited on the ride
    // lock; re-read it now that the lock is held.
    req, err = tx.GetRequest(ctx, requestID)
    if err != nil {
        return Decision{}, err
    }
    if err := Authorize(actorID, ride, &req, ActionDecideRequest); err != nil {
        return Decision{}, err
    }
    if req.Accepted == accepted {
        return Decision{}, ErrNothingToPatch
    }

    dec := Decision{}
    if accepted {
        count, err := tx.CountAccepted(ctx, ride.ID)
        if err != nil {
            return Decision{}, err
        }
        if count >= int(ride.EmptySeats) {
            return Decision{}, ErrRideFull
        }
        if err := tx.SetRequestAccepted(ctx, requestID, true); err != nil {
            return Decision{}, err
        }
        if count+1 == int(ride.EmptySeats) {
            pruned, err := tx.DeletePendingRequests(ctx, ride.ID, requestID)
            if err != nil {
                return Decision{}, err
            }
            dec.Filled = true
            dec.PrunedRequestIDs = pruned
        }
    } else {
        // Declining frees a seat; nothing else to reconcile.
        if err := tx.SetRequestAccepted(ctx, requestID, false); err != nil {
            return Decision{}, err
        }
    }
    if err := tx.Commit(); err != nil {
        return Decision{}, err
    }
    committed = true

    req.Accepted = accepted
    req.UpdatedAt = co.clock()
    dec.Request = req
    dec.Ride = ride
    return dec, nil
}

// UpdateRequestLocation lets the requester adjust the pickup hint on
// their own request.  It can never flip the accepted flag.
func (co *Coordinator) UpdateRequestLocation(ctx context.Context, actorID, requestID uint64, loc Location) (model.SeatRequest, error) {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.SeatRequest{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    req, err := tx.GetRequest(ctx, requestID)
    if err != nil {
        return model.SeatRequest{}, err
    }
    ride, err := tx.RideForUpdate(ctx, req.RideID)
    if err != nil {
        return model.SeatRequest{}, err
    }
    if err := Authorize(actorID, ride, &req, ActionEditRequest); err != nil {
        return model.SeatRequest{}, err
    }
    if err := tx.UpdateRequestLocation(ctx, requestID, loc.Latitude, loc.Longitude); err != nil {
        return model.SeatRequest{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.SeatRequest{}, err
    }
    committed = true

    req.Latitude = loc.Latitude
    req.Longitude = loc.Longitude
    req.UpdatedAt = co.clock()
    return req, nil
}

// DeleteRequest is the requester's cancel.  It is allowed in any state;
// cancelling an accepted request frees the seat.
func (co *Coordinator) DeleteRequest(ctx context.Context, actorID, requestID uint64) error {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    req, err := tx.GetRequest(ctx, requestID)
    if err != nil {
        return err
    }
    ride, err := tx.RideForUpdate(ctx, req.RideID)
    if err != nil {
        return err
    }
    if err := Authorize(actorID, ride, &req, ActionCancelRequest); err != nil {
        return err
    }
    if err := tx.DeleteRequest(ctx, requestID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// RegisterInterest declares the actor's need for a ride to an event.
// Event-ride variant only.  Fails with ErrConflict when the actor
// already drives for this event or already holds an interest
// registration anywhere, and with ErrNotFound when the event does not
// exist in the catalog.
func (co *Coordinator) RegisterInterest(ctx context.Context, actorID, eventID uint64, loc Location) (model.InterestedParty, error) {
    if !co.variant.EventScoped {
        return model.InterestedParty{}, ErrNotFound
    }
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.InterestedParty{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ok, err := tx.EventExists(ctx, eventID)
    if err != nil {
        return model.InterestedParty{}, err
    }
    if !ok {
        return model.InterestedParty{}, ErrNotFound
    }
    if _, err := tx.RideByDriver(ctx, actorID, eventID); err == nil {
        return model.InterestedParty{}, ErrConflict
    } else if !errors.Is(err, ErrNotFound) {
        return model.InterestedParty{}, err
    }
    if _, err := tx.InterestByParticipant(ctx, actorID); err == nil {
        return model.InterestedParty{}, ErrConflict
    } else if !errors.Is(err, ErrNotFound) {
        return model.InterestedParty{}, err
    }

    now := co.clock()
    ip := model.InterestedParty{
        ParticipantID: actorID,
        EventID:       eventID,
        Latitude:      loc.Latitude,
        Longitude:     loc.Longitude,
        CreatedAt:     now,
        UpdatedAt:     now,
    }
    if err := tx.InsertInterest(ctx, &ip); err != nil {
        return model.InterestedParty{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.InterestedParty{}, err
    }
    committed = true
    return ip, nil
}

// PatchInterest updates the pickup location of an interest
// registration.  Owner only.
func (co *Coordinator) PatchInterest(ctx context.Context, actorID, interestID uint64, loc Location) (model.InterestedParty, error) {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return model.InterestedParty{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ip, err := tx.InterestForUpdate(ctx, interestID)
    if err != nil {
        return model.InterestedParty{}, err
    }
    if ip.ParticipantID != actorID {
        return model.InterestedParty{}, ErrForbidden
    }
    ip.Latitude = loc.Latitude
    ip.Longitude = loc.Longitude
    ip.UpdatedAt = co.clock()
    if err := tx.UpdateInterest(ctx, ip); err != nil {
        return model.InterestedParty{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.InterestedParty{}, err
    }
    committed = true
    return ip, nil
}

// DeleteInterest withdraws an interest registration.  Owner only.  Seat
// requests backed by the registration are removed with it.
func (co *Coordinator) DeleteInterest(ctx context.Context, actorID, interestID uint64) error {
    tx, err := co.store.Begin(ctx)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ip, err := tx.InterestForUpdate(ctx, interestID)
    if err != nil {
        return err
    }
    if ip.ParticipantID != actorID {
        return ErrForbidden
    }
    if err := tx.DeleteRequestsByInterest(ctx, interestID); err != nil {
        return err
    }
    if err := tx.DeleteInterest(ctx, interestID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetInterest returns one interest registration.
func (co *Coordinator) GetInterest(ctx context.Context, interestID uint64) (model.InterestedParty, error) {
    return co.store.GetInterest(ctx, interestID)
}
