package matching

import "github.com/iliyamo/event-carpool/internal/model"

// Action enumerates the guarded state transitions.
type Action int

const (
    // ActionPatchRide and ActionDeleteRide belong to the ride's driver.
    ActionPatchRide Action = iota
    ActionDeleteRide
    // ActionDecideRequest is the driver accepting or declining a
    // rider's request.
    ActionDecideRequest
    // ActionEditRequest is the requester updating their own request's
    // pickup location.  It never touches the accepted flag.
    ActionEditRequest
    // ActionCancelRequest is the requester withdrawing their request,
    // allowed in any state.
    ActionCancelRequest
)

// Authorize is the pure permission check: given the acting participant,
// the ride, the request under consideration (nil for ride-level actions)
// and the attempted transition, it returns nil to permit or ErrForbidden
// to deny.  It makes no storage calls and carries no state; all
// capacity and uniqueness rules live in the coordinator, not here.
func Authorize(actorID uint64, ride model.RideOffer, req *model.SeatRequest, action Action) error {
    switch action {
    case ActionPatchRide, ActionDeleteRide, ActionDecideRequest:
        if actorID != ride.DriverID {
            return ErrForbidden
        }
        return nil
    case ActionEditRequest, ActionCancelRequest:
        if req == nil || actorID != req.RequesterID {
            return ErrForbidden
        }
        return nil
    }
    return ErrForbidden
}
