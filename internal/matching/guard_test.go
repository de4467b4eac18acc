package matching

import (
    "testing"

    "github.com/iliyamo/event-carpool/internal/model"
)

func TestAuthorize(t *testing.T) {
    ride := model.RideOffer{ID: 1, DriverID: 10}
    req := &model.SeatRequest{ID: 2, RideID: 1, RequesterID: 20}

    cases := []struct {
        name    string
        actorID uint64
        req     *model.SeatRequest
        action  Action
        wantErr error
    }{
        {"driver patches ride", 10, nil, ActionPatchRide, nil},
        {"stranger patches ride", 20, nil, ActionPatchRide, ErrForbidden},
        {"driver deletes ride", 10, nil, ActionDeleteRide, nil},
        {"requester deletes ride", 20, nil, ActionDeleteRide, ErrForbidden},
        {"driver decides request", 10, req, ActionDecideRequest, nil},
        {"requester decides own request", 20, req, ActionDecideRequest, ErrForbidden},
        {"requester edits request", 20, req, ActionEditRequest, nil},
        {"driver edits request", 10, req, ActionEditRequest, ErrForbidden},
        {"requester cancels request", 20, req, ActionCancelRequest, nil},
        {"driver cancels request", 10, req, ActionCancelRequest, ErrForbidden},
        {"edit without request", 20, nil, ActionEditRequest, ErrForbidden},
        {"unknown action", 10, req, Action(99), ErrForbidden},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if err := Authorize(tc.actorID, ride, tc.req, tc.action); err != tc.wantErr {
                t.Fatalf("Authorize = %v, want %v", err, tc.wantErr)
            }
        })
    }
}
