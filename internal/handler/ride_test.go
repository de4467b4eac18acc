package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/matching/matchingtest"
    "github.com/iliyamo/event-carpool/internal/model"
    "github.com/iliyamo/event-carpool/internal/queue"
)

type capturePublisher struct {
    accepted chan queue.RequestAcceptedEvent
    filled   chan queue.RideFilledEvent
}

func newCapturePublisher() *capturePublisher {
    return &capturePublisher{
        accepted: make(chan queue.RequestAcceptedEvent, 1),
        filled:   make(chan queue.RideFilledEvent, 1),
    }
}

func (p *capturePublisher) RequestAccepted(ctx context.Context, ev queue.RequestAcceptedEvent) {
    p.accepted <- ev
}

func (p *capturePublisher) RideFilled(ctx context.Context, ev queue.RideFilledEvent) {
    p.filled <- ev
}

func newTestHandler(v matching.Variant) (*RideHandler, *matchingtest.Store) {
    store := matchingtest.New()
    h := NewRideHandler(matching.NewCoordinator(store, v), nil, nil)
    return h, store
}

// call builds an echo context for a JSON request and invokes fn, then
// returns the recorder.  actor 0 leaves the participant unset.
func call(t *testing.T, fn echo.HandlerFunc, method, target, body string, actor uint64, params map[string]string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    var reader *strings.Reader
    if body == "" {
        reader = strings.NewReader("")
    } else {
        reader = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, target, reader)
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if actor != 0 {
        c.Set("participant_id", actor)
    }
    for name, value := range params {
        c.SetParamNames(name)
        c.SetParamValues(value)
    }
    if err := fn(c); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func TestCreateRideHandler(t *testing.T) {
    h, _ := newTestHandler(matching.GenericRides)

    rec := call(t, h.CreateRide, http.MethodPost, "/v1/rides",
        `{"empty_seats":3,"starts_at":"2026-10-01T18:00:00Z","description":"after work"}`,
        7, nil)
    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
    }
    var resp struct {
        Item model.RideOffer `json:"item"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp.Item.ID == 0 || resp.Item.DriverID != 7 || resp.Item.EmptySeats != 3 {
        t.Fatalf("unexpected ride in response: %+v", resp.Item)
    }
}

func TestCreateRideMissingStartsAt(t *testing.T) {
    h, _ := newTestHandler(matching.GenericRides)

    rec := call(t, h.CreateRide, http.MethodPost, "/v1/rides", `{"empty_seats":3}`, 7, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
}

func TestCreateRideRequiresEventID(t *testing.T) {
    h, _ := newTestHandler(matching.EventRides)

    rec := call(t, h.CreateRide, http.MethodPost, "/v1/eventrides",
        `{"empty_seats":3,"starts_at":"2026-10-01T18:00:00Z"}`, 7, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
}

func TestCreateRideUnauthenticated(t *testing.T) {
    h, _ := newTestHandler(matching.GenericRides)

    rec := call(t, h.CreateRide, http.MethodPost, "/v1/rides",
        `{"empty_seats":3,"starts_at":"2026-10-01T18:00:00Z"}`, 0, nil)
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("status = %d, want 401", rec.Code)
    }
}

func TestGetRideNotFound(t *testing.T) {
    h, _ := newTestHandler(matching.GenericRides)

    rec := call(t, h.GetRide, http.MethodGet, "/v1/rides/42", "", 0, map[string]string{"id": "42"})
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
}

func TestDeleteRideForbidden(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 2, StartsAt: time.Now()})

    rec := call(t, h.DeleteRide, http.MethodDelete, "/v1/rides/1", "", 9,
        map[string]string{"id": strconv.FormatUint(ride.ID, 10)})
    if rec.Code != http.StatusForbidden {
        t.Fatalf("status = %d, want 403", rec.Code)
    }
}

func TestCreateRequestConflicts(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 1, StartsAt: time.Now()})
    params := map[string]string{"id": strconv.FormatUint(ride.ID, 10)}

    // Driver asking for a seat on their own ride.
    rec := call(t, h.CreateRequest, http.MethodPost, "/v1/rides/1/requests", `{"latitude":1}`, 7, params)
    if rec.Code != http.StatusConflict {
        t.Fatalf("self-request status = %d, want 409", rec.Code)
    }

    rec = call(t, h.CreateRequest, http.MethodPost, "/v1/rides/1/requests", `{"latitude":1}`, 8, params)
    if rec.Code != http.StatusCreated {
        t.Fatalf("first request status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
    }
    rec = call(t, h.CreateRequest, http.MethodPost, "/v1/rides/1/requests", `{"latitude":1}`, 8, params)
    if rec.Code != http.StatusConflict {
        t.Fatalf("duplicate request status = %d, want 409", rec.Code)
    }

    // Fill the single seat, then a third rider is turned away.
    store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 10, Accepted: true})
    rec = call(t, h.CreateRequest, http.MethodPost, "/v1/rides/1/requests", `{"latitude":1}`, 9, params)
    if rec.Code != http.StatusConflict {
        t.Fatalf("full-ride status = %d, want 409", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "ride is full") {
        t.Fatalf("full-ride body = %s, want ride-is-full error", rec.Body.String())
    }
}

func TestPatchRequestAcceptPublishes(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    pub := newCapturePublisher()
    h.Publisher = pub

    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 1, StartsAt: time.Now()})
    win := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    lose := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 9})

    rec := call(t, h.PatchRequest, http.MethodPatch, "/v1/rides/requests/1", `{"accepted":true}`, 7,
        map[string]string{"id": strconv.FormatUint(win.ID, 10)})
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
    }
    if !strings.Contains(rec.Body.String(), `"ride_filled":true`) {
        t.Fatalf("body = %s, want ride_filled true", rec.Body.String())
    }

    select {
    case ev := <-pub.accepted:
        if ev.RequestID != win.ID || ev.DriverID != 7 || ev.RideKind != "ride" {
            t.Fatalf("accepted event = %+v", ev)
        }
    case <-time.After(2 * time.Second):
        t.Fatal("no request-accepted event published")
    }
    select {
    case ev := <-pub.filled:
        if ev.RideID != ride.ID || len(ev.PrunedRequestIDs) != 1 || ev.PrunedRequestIDs[0] != lose.ID {
            t.Fatalf("filled event = %+v", ev)
        }
    case <-time.After(2 * time.Second):
        t.Fatal("no ride-filled event published")
    }
}

func TestPatchRequestLocation(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 2, StartsAt: time.Now()})
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    params := map[string]string{"id": strconv.FormatUint(req.ID, 10)}

    rec := call(t, h.PatchRequest, http.MethodPatch, "/v1/rides/requests/1",
        `{"latitude":3.5,"longitude":4.5}`, 8, params)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
    }

    // Empty patch body.
    rec = call(t, h.PatchRequest, http.MethodPatch, "/v1/rides/requests/1", `{}`, 8, params)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("empty patch status = %d, want 400", rec.Code)
    }

    // Driver cannot edit the rider's location.
    rec = call(t, h.PatchRequest, http.MethodPatch, "/v1/rides/requests/1", `{"latitude":1}`, 7, params)
    if rec.Code != http.StatusForbidden {
        t.Fatalf("driver location edit status = %d, want 403", rec.Code)
    }
}

func TestDeleteRequestHandler(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 2, StartsAt: time.Now()})
    req := store.SeedRequest(model.SeatRequest{RideID: ride.ID, RequesterID: 8})
    params := map[string]string{"id": strconv.FormatUint(req.ID, 10)}

    rec := call(t, h.DeleteRequest, http.MethodDelete, "/v1/rides/requests/1", "", 8, params)
    if rec.Code != http.StatusNoContent {
        t.Fatalf("status = %d, want 204", rec.Code)
    }
    if store.HasRequest(req.ID) {
        t.Fatal("request still present after cancel")
    }
}

func TestPatchRideNothingToPatch(t *testing.T) {
    h, store := newTestHandler(matching.GenericRides)
    ride := store.SeedRide(model.RideOffer{DriverID: 7, EmptySeats: 2, StartsAt: time.Now()})

    rec := call(t, h.PatchRide, http.MethodPatch, "/v1/rides/1", `{}`, 7,
        map[string]string{"id": strconv.FormatUint(ride.ID, 10)})
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
}
