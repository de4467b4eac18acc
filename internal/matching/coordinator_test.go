package matching_test

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/matching/matchingtest"
    "github.com/iliyamo/event-carpool/internal/model"
)

func newEngine(v matching.Variant) (*matching.Coordinator, *matchingtest.Store) {
    store := matchingtest.New()
    return matching.NewCoordinator(store, v), store
}

func seedRide(store *matchingtest.Store, driverID, eventID uint64, seats uint32) model.RideOffer {
    return store.SeedRide(model.RideOffer{
        DriverID:   driverID,
        EventID:    eventID,
        EmptySeats: seats,
        StartsAt:   time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
    })
}

func TestCreateRideRejectsSecondOfferByDriver(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    seedRide(store, 7, 0, 3)

    _, err := eng.CreateRide(context.Background(), 7, matching.RideSpec{
        EmptySeats: 2,
        StartsAt:   time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
    })
    if !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("CreateRide err = %v, want ErrConflict", err)
    }
}

func TestCreateRideUnknownEvent(t *testing.T) {
    eng, _ := newEngine(matching.EventRides)

    _, err := eng.CreateRide(context.Background(), 1, matching.RideSpec{
        EventID:    99,
        EmptySeats: 2,
        StartsAt:   time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
    })
    if !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("CreateRide err = %v, want ErrNotFound", err)
    }
}

func TestCreateRideRemovesOwnInterest(t *testing.T) {
    eng, store := newEngine(matching.EventRides)
    store.AddEvent(5)
    ip := store.SeedInterest(model.InterestedParty{ParticipantID: 3, EventID: 5})
    ride := seedRide(store, 9, 5, 2)
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 3, InterestedPartyID: ip.ID})

    if _, err := eng.CreateRide(context.Background(), 3, matching.RideSpec{
        EventID:    5,
        EmptySeats: 4,
        StartsAt:   time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
    }); err != nil {
        t.Fatalf("CreateRide: %v", err)
    }
    if store.HasInterest(ip.ID) {
        t.Fatal("interest registration survived the actor becoming a driver")
    }
    if store.HasRequest(req.ID) {
        t.Fatal("seat request backed by the removed interest survived")
    }
}

func TestCreateRequestByDriverRejected(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 3)

    _, err := eng.CreateRequest(context.Background(), 7, ride.ID, matching.Location{})
    if !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("CreateRequest err = %v, want ErrConflict", err)
    }
}

func TestCreateRequestDuplicateRejected(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 3)

    if _, err := eng.CreateRequest(context.Background(), 8, ride.ID, matching.Location{}); err != nil {
        t.Fatalf("first CreateRequest: %v", err)
    }
    _, err := eng.CreateRequest(context.Background(), 8, ride.ID, matching.Location{})
    if !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("second CreateRequest err = %v, want ErrConflict", err)
    }
}

func TestCreateRequestNeedsMatchingInterest(t *testing.T) {
    eng, store := newEngine(matching.EventRides)
    store.AddEvent(5)
    store.AddEvent(6)
    ride := seedRide(store, 7, 5, 3)

    // No interest registration at all.
    if _, err := eng.CreateRequest(context.Background(), 8, ride.ID, matching.Location{}); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("CreateRequest without interest err = %v, want ErrNotFound", err)
    }

    // Interest registered for a different event.
    store.SeedInterest(model.InterestedParty{ParticipantID: 8, EventID: 6})
    if _, err := eng.CreateRequest(context.Background(), 8, ride.ID, matching.Location{}); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("CreateRequest with wrong-event interest err = %v, want ErrNotFound", err)
    }

    // Matching interest.
    store.SeedInterest(model.InterestedParty{ParticipantID: 9, EventID: 5})
    req, err := eng.CreateRequest(context.Background(), 9, ride.ID, matching.Location{Latitude: 1, Longitude: 2})
    if err != nil {
        t.Fatalf("CreateRequest with matching interest: %v", err)
    }
    if req.Accepted {
        t.Fatal("new request must start pending")
    }
}

func TestCreateRequestOnFullRide(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 1)
    store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8, Accepted: true})

    _, err := eng.CreateRequest(context.Background(), 9, ride.ID, matching.Location{})
    if !errors.Is(err, matching.ErrRideFull) {
        t.Fatalf("CreateRequest err = %v, want ErrRideFull", err)
    }
    if !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("ErrRideFull must match ErrConflict, got %v", err)
    }
}

func TestAcceptLastSeatPrunesPending(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 1)
    reqX := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    reqY := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9})

    dec, err := eng.SetAccepted(context.Background(), 7, reqX.ID, true)
    if err != nil {
        t.Fatalf("SetAccepted: %v", err)
    }
    if !dec.Request.Accepted {
        t.Fatal("winning request not marked accepted")
    }
    if !dec.Filled {
        t.Fatal("accepting the last seat must report the ride as filled")
    }
    if len(dec.PrunedRequestIDs) != 1 || dec.PrunedRequestIDs[0] != reqY.ID {
        t.Fatalf("PrunedRequestIDs = %v, want [%d]", dec.PrunedRequestIDs, reqY.ID)
    }
    if store.HasRequest(reqY.ID) {
        t.Fatal("competing pending request survived the fill")
    }

    // The pruned request no longer exists for a later decision.
    if _, err := eng.SetAccepted(context.Background(), 7, reqY.ID, true); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("accept on pruned request err = %v, want ErrNotFound", err)
    }
}

func TestAcceptBeyondCapacity(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    // Seats shrank to the accepted count after the pending request was
    // filed, so the pending request survived but can no longer be
    // accepted.
    ride := seedRide(store, 7, 0, 1)
    store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8, Accepted: true})
    pending := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9})

    _, err := eng.SetAccepted(context.Background(), 7, pending.ID, true)
    if !errors.Is(err, matching.ErrRideFull) {
        t.Fatalf("SetAccepted err = %v, want ErrRideFull", err)
    }
}

func TestConcurrentAcceptsNeverOverbook(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 1)
    reqX := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    reqY := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9})

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i, id := range []uint64{reqX.ID, reqY.ID} {
        wg.Add(1)
        go func(slot int, requestID uint64) {
            defer wg.Done()
            _, err := eng.SetAccepted(context.Background(), 7, requestID, true)
            errs[slot] = err
        }(i, id)
    }
    wg.Wait()

    okCount := 0
    for _, err := range errs {
        if err == nil {
            okCount++
            continue
        }
        // The loser either recounts against a full ride or finds its
        // request already pruned by the winner's fill.
        if !errors.Is(err, matching.ErrConflict) && !errors.Is(err, matching.ErrNotFound) {
            t.Fatalf("loser err = %v, want conflict or not-found", err)
        }
    }
    if okCount != 1 {
        t.Fatalf("accepted %d of 2 concurrent requests, want exactly 1", okCount)
    }
    if got := store.RequestCount(ride.ID, true); got != 1 {
        t.Fatalf("accepted count = %d, want 1", got)
    }
}

func TestCancelAcceptedFreesSeat(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 1)
    accepted := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8, Accepted: true})

    if err := eng.DeleteRequest(context.Background(), 8, accepted.ID); err != nil {
        t.Fatalf("DeleteRequest: %v", err)
    }
    if got := store.RequestCount(ride.ID, true); got != 0 {
        t.Fatalf("accepted count after cancel = %d, want 0", got)
    }

    // The freed seat can be taken again.
    late, err := eng.CreateRequest(context.Background(), 9, ride.ID, matching.Location{})
    if err != nil {
        t.Fatalf("CreateRequest after cancel: %v", err)
    }
    if _, err := eng.SetAccepted(context.Background(), 7, late.ID, true); err != nil {
        t.Fatalf("SetAccepted after cancel: %v", err)
    }
}

func TestDecisionWithoutChange(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 2)
    pending := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    accepted := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9, Accepted: true})

    if _, err := eng.SetAccepted(context.Background(), 7, pending.ID, false); !errors.Is(err, matching.ErrNothingToPatch) {
        t.Fatalf("decline pending err = %v, want ErrNothingToPatch", err)
    }
    if _, err := eng.SetAccepted(context.Background(), 7, accepted.ID, true); !errors.Is(err, matching.ErrNothingToPatch) {
        t.Fatalf("accept accepted err = %v, want ErrNothingToPatch", err)
    }
}

func TestSetAcceptedByNonDriver(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 2)
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})

    if _, err := eng.SetAccepted(context.Background(), 8, req.ID, true); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("requester deciding own request err = %v, want ErrForbidden", err)
    }
}

func TestUpdateRequestLocationPermissions(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 2)
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})

    if _, err := eng.UpdateRequestLocation(context.Background(), 7, req.ID, matching.Location{Latitude: 1}); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("driver editing rider location err = %v, want ErrForbidden", err)
    }
    got, err := eng.UpdateRequestLocation(context.Background(), 8, req.ID, matching.Location{Latitude: 1.5, Longitude: 2.5})
    if err != nil {
        t.Fatalf("UpdateRequestLocation: %v", err)
    }
    if got.Latitude != 1.5 || got.Longitude != 2.5 {
        t.Fatalf("location = (%v,%v), want (1.5,2.5)", got.Latitude, got.Longitude)
    }
    if got.Accepted {
        t.Fatal("location update must not flip the accepted flag")
    }
}

func TestPatchRide(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 3)
    store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8, Accepted: true})
    store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9, Accepted: true})

    if _, err := eng.PatchRide(context.Background(), 7, ride.ID, matching.RidePatch{}); !errors.Is(err, matching.ErrNothingToPatch) {
        t.Fatalf("empty patch err = %v, want ErrNothingToPatch", err)
    }

    one := uint32(1)
    if _, err := eng.PatchRide(context.Background(), 7, ride.ID, matching.RidePatch{EmptySeats: &one}); !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("shrink below accepted err = %v, want ErrConflict", err)
    }

    two := uint32(2)
    got, err := eng.PatchRide(context.Background(), 7, ride.ID, matching.RidePatch{EmptySeats: &two})
    if err != nil {
        t.Fatalf("shrink to accepted count: %v", err)
    }
    if got.EmptySeats != 2 {
        t.Fatalf("EmptySeats = %d, want 2", got.EmptySeats)
    }

    if _, err := eng.PatchRide(context.Background(), 9, ride.ID, matching.RidePatch{EmptySeats: &two}); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("patch by non-driver err = %v, want ErrForbidden", err)
    }
}

func TestDeleteRideCascades(t *testing.T) {
    eng, store := newEngine(matching.GenericRides)
    ride := seedRide(store, 7, 0, 3)
    a := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8, Accepted: true})
    b := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9})

    if err := eng.DeleteRide(context.Background(), 8, ride.ID); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("delete by non-driver err = %v, want ErrForbidden", err)
    }
    if err := eng.DeleteRide(context.Background(), 7, ride.ID); err != nil {
        t.Fatalf("DeleteRide: %v", err)
    }
    if store.HasRequest(a.ID) || store.HasRequest(b.ID) {
        t.Fatal("requests survived ride deletion")
    }
    if _, err := eng.GetRide(context.Background(), ride.ID); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("GetRide after delete err = %v, want ErrNotFound", err)
    }
}

func TestRegisterInterest(t *testing.T) {
    eng, store := newEngine(matching.EventRides)
    store.AddEvent(5)

    if _, err := eng.RegisterInterest(context.Background(), 3, 99, matching.Location{}); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("unknown event err = %v, want ErrNotFound", err)
    }

    seedRide(store, 4, 5, 2)
    if _, err := eng.RegisterInterest(context.Background(), 4, 5, matching.Location{}); !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("driver registering interest err = %v, want ErrConflict", err)
    }

    ip, err := eng.RegisterInterest(context.Background(), 3, 5, matching.Location{Latitude: 1})
    if err != nil {
        t.Fatalf("RegisterInterest: %v", err)
    }
    if ip.ID == 0 || ip.EventID != 5 {
        t.Fatalf("registration = %+v", ip)
    }
    if _, err := eng.RegisterInterest(context.Background(), 3, 5, matching.Location{}); !errors.Is(err, matching.ErrConflict) {
        t.Fatalf("duplicate registration err = %v, want ErrConflict", err)
    }
}

func TestRegisterInterestWrongVariant(t *testing.T) {
    eng, _ := newEngine(matching.GenericRides)
    if _, err := eng.RegisterInterest(context.Background(), 3, 5, matching.Location{}); !errors.Is(err, matching.ErrNotFound) {
        t.Fatalf("RegisterInterest on non-event variant err = %v, want ErrNotFound", err)
    }
}

func TestDeleteInterestCascades(t *testing.T) {
    eng, store := newEngine(matching.EventRides)
    store.AddEvent(5)
    ip := store.SeedInterest(model.InterestedParty{ParticipantID: 3, EventID: 5})
    ride := seedRide(store, 7, 5, 2)
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 3, InterestedPartyID: ip.ID})

    if err := eng.DeleteInterest(context.Background(), 4, ip.ID); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("delete by non-owner err = %v, want ErrForbidden", err)
    }
    if err := eng.DeleteInterest(context.Background(), 3, ip.ID); err != nil {
        t.Fatalf("DeleteInterest: %v", err)
    }
    if store.HasRequest(req.ID) {
        t.Fatal("request survived interest withdrawal")
    }
}

func TestPatchInterest(t *testing.T) {
    eng, store := newEngine(matching.EventRides)
    ip := store.SeedInterest(model.InterestedParty{ParticipantID: 3, EventID: 5})

    if _, err := eng.PatchInterest(context.Background(), 4, ip.ID, matching.Location{}); !errors.Is(err, matching.ErrForbidden) {
        t.Fatalf("patch by non-owner err = %v, want ErrForbidden", err)
    }
    got, err := eng.PatchInterest(context.Background(), 3, ip.ID, matching.Location{Latitude: 9, Longitude: 8})
    if err != nil {
        t.Fatalf("PatchInterest: %v", err)
    }
    if got.Latitude != 9 || got.Longitude != 8 {
        t.Fatalf("location = (%v,%v), want (9,8)", got.Latitude, got.Longitude)
    }
}
