package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/model"
    "github.com/iliyamo/event-carpool/internal/queue"
    "github.com/iliyamo/event-carpool/internal/repository"
    queue_publisher "github.com/iliyamo/event-carpool/internal/service"
)

// EventPublisher pushes matching outcomes to the message broker.  The
// handler treats publication as fire-and-forget: a committed matching
// decision is never undone because the broker is down.
type EventPublisher interface {
    RequestAccepted(ctx context.Context, ev queue.RequestAcceptedEvent)
    RideFilled(ctx context.Context, ev queue.RideFilledEvent)
}

// AMQPPublisher publishes to RabbitMQ via the queue_publisher service.
type AMQPPublisher struct{}

func (AMQPPublisher) RequestAccepted(ctx context.Context, ev queue.RequestAcceptedEvent) {
    _ = queue_publisher.PublishRequestAccepted(ctx, ev)
}

func (AMQPPublisher) RideFilled(ctx context.Context, ev queue.RideFilledEvent) {
    _ = queue_publisher.PublishRideFilled(ctx, ev)
}

// RideHandler serves one ride variant's routes.  Three instances are
// registered, one per variant, all sharing this implementation; the
// bound coordinator carries the variant-specific rules.  Participants
// is the read-only name lookup used to label drivers and riders in
// listings; it and Publisher may be nil (names and events are then
// omitted).
type RideHandler struct {
    Coord        *matching.Coordinator
    Participants *repository.ParticipantRepo
    Publisher    EventPublisher
}

// NewRideHandler constructs a RideHandler for one coordinator.
func NewRideHandler(coord *matching.Coordinator, participants *repository.ParticipantRepo, pub EventPublisher) *RideHandler {
    if coord == nil {
        panic("nil coordinator passed to NewRideHandler")
    }
    return &RideHandler{Coord: coord, Participants: participants, Publisher: pub}
}

type rideBody struct {
    EventID            uint64    `json:"event_id"`
    EmptySeats         uint32    `json:"empty_seats"`
    StartsAt           time.Time `json:"starts_at"`
    Description        string    `json:"description"`
    VehicleDescription string    `json:"vehicle_description"`
    Latitude           float64   `json:"latitude"`
    Longitude          float64   `json:"longitude"`
}

type ridePatchBody struct {
    EmptySeats         *uint32    `json:"empty_seats"`
    StartsAt           *time.Time `json:"starts_at"`
    Description        *string    `json:"description"`
    VehicleDescription *string    `json:"vehicle_description"`
    Latitude           *float64   `json:"latitude"`
    Longitude          *float64   `json:"longitude"`
}

type requestPatchBody struct {
    Accepted  *bool    `json:"accepted"`
    Latitude  *float64 `json:"latitude"`
    Longitude *float64 `json:"longitude"`
}

type locationBody struct {
    Latitude  float64 `json:"latitude"`
    Longitude float64 `json:"longitude"`
}

// CreateRide handles POST /v1/<variant>.  The acting participant
// becomes the driver of the new offer.
func (h *RideHandler) CreateRide(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body rideBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if h.Coord.Variant().EventScoped && body.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
    }
    if body.StartsAt.IsZero() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at is required"})
    }
    ride, err := h.Coord.CreateRide(c.Request().Context(), actor, matching.RideSpec{
        EventID:            body.EventID,
        EmptySeats:         body.EmptySeats,
        StartsAt:           body.StartsAt,
        Description:        body.Description,
        VehicleDescription: body.VehicleDescription,
        Latitude:           body.Latitude,
        Longitude:          body.Longitude,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": ride})
}

// ListRides handles GET /v1/<variant>.  For event rides an optional
// ?event_id= query parameter restricts the listing.  Driver names are
// attached when the participant lookup is available.
func (h *RideHandler) ListRides(c echo.Context) error {
    eventID := uint64(0)
    if raw := c.QueryParam("event_id"); raw != "" {
        id, err := parseQueryID(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
        }
        eventID = id
    }
    ctx := c.Request().Context()
    rides, err := h.Coord.ListRides(ctx, eventID)
    if err != nil {
        return engineError(c, err)
    }
    names := h.lookupNames(ctx, driverIDs(rides))
    items := make([]echo.Map, 0, len(rides))
    for _, ride := range rides {
        items = append(items, echo.Map{"ride": ride, "driver_name": names[ride.DriverID]})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetRide handles GET /v1/<variant>/:id.  The detail includes the
// ride's seat requests so a driver sees who is asking.
func (h *RideHandler) GetRide(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
    }
    ctx := c.Request().Context()
    ride, err := h.Coord.GetRide(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    requests, err := h.Coord.ListRequests(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    ids := []uint64{ride.DriverID}
    for _, req := range requests {
        ids = append(ids, req.RequesterID)
    }
    names := h.lookupNames(ctx, ids)
    reqItems := make([]echo.Map, 0, len(requests))
    for _, req := range requests {
        reqItems = append(reqItems, echo.Map{"request": req, "requester_name": names[req.RequesterID]})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "item":        ride,
        "driver_name": names[ride.DriverID],
        "requests":    reqItems,
    })
}

// PatchRide handles PATCH /v1/<variant>/:id.  Driver only.
func (h *RideHandler) PatchRide(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
    }
    var body ridePatchBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ride, err := h.Coord.PatchRide(c.Request().Context(), actor, id, matching.RidePatch{
        EmptySeats:         body.EmptySeats,
        StartsAt:           body.StartsAt,
        Description:        body.Description,
        VehicleDescription: body.VehicleDescription,
        Latitude:           body.Latitude,
        Longitude:          body.Longitude,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": ride})
}

// DeleteRide handles DELETE /v1/<variant>/:id.  Driver only; all seat
// requests for the ride are removed with it.
func (h *RideHandler) DeleteRide(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
    }
    if err := h.Coord.DeleteRide(c.Request().Context(), actor, id); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateRequest handles POST /v1/<variant>/:id/requests.  The acting
// participant asks for one seat; the request starts pending.
func (h *RideHandler) CreateRequest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
    }
    var body locationBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req, err := h.Coord.CreateRequest(c.Request().Context(), actor, id, matching.Location{
        Latitude:  body.Latitude,
        Longitude: body.Longitude,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": req})
}

// PatchRequest handles PATCH /v1/<variant>/requests/:id.  A body with
// "accepted" is the driver's accept/decline; a body with only a
// location is the requester updating their pickup hint.  The two
// actors can never perform each other's edit.
func (h *RideHandler) PatchRequest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    var body requestPatchBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx := c.Request().Context()

    if body.Accepted != nil {
        dec, err := h.Coord.SetAccepted(ctx, actor, id, *body.Accepted)
        if err != nil {
            return engineError(c, err)
        }
        h.publishDecision(dec)
        return c.JSON(http.StatusOK, echo.Map{"item": dec.Request, "ride_filled": dec.Filled})
    }
    if body.Latitude != nil || body.Longitude != nil {
        loc := matching.Location{}
        if body.Latitude != nil {
            loc.Latitude = *body.Latitude
        }
        if body.Longitude != nil {
            loc.Longitude = *body.Longitude
        }
        req, err := h.Coord.UpdateRequestLocation(ctx, actor, id, loc)
        if err != nil {
            return engineError(c, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"item": req})
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to patch"})
}

// DeleteRequest handles DELETE /v1/<variant>/requests/:id.  Requester
// only; cancelling an accepted request frees the seat.
func (h *RideHandler) DeleteRequest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    if err := h.Coord.DeleteRequest(c.Request().Context(), actor, id); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// publishDecision pushes queue events for an accept, and for the prune
// when the accept filled the ride.  Runs detached from the request so
// a slow broker never delays the response.
func (h *RideHandler) publishDecision(dec matching.Decision) {
    if h.Publisher == nil || !dec.Request.Accepted {
        return
    }
    kind := h.Coord.Variant().Kind
    req := dec.Request
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        now := time.Now().UTC().Format(time.RFC3339)
        h.Publisher.RequestAccepted(ctx, queue.RequestAcceptedEvent{
            RideKind:    kind,
            RideID:      req.RideID,
            RequestID:   req.ID,
            DriverID:    dec.Ride.DriverID,
            RequesterID: req.RequesterID,
            AcceptedAt:  now,
        })
        if dec.Filled {
            h.Publisher.RideFilled(ctx, queue.RideFilledEvent{
                RideKind:         kind,
                RideID:           req.RideID,
                DriverID:         dec.Ride.DriverID,
                EmptySeats:       dec.Ride.EmptySeats,
                PrunedRequestIDs: dec.PrunedRequestIDs,
                FilledAt:         now,
            })
        }
    }()
}

func (h *RideHandler) lookupNames(ctx context.Context, ids []uint64) map[uint64]string {
    if h.Participants == nil || len(ids) == 0 {
        return map[uint64]string{}
    }
    names, err := h.Participants.NamesByIDs(ctx, ids)
    if err != nil {
        return map[uint64]string{}
    }
    return names
}

func driverIDs(rides []model.RideOffer) []uint64 {
    ids := make([]uint64, 0, len(rides))
    for _, ride := range rides {
        ids = append(ids, ride.DriverID)
    }
    return ids
}
