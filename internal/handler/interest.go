package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/matching"
)

// InterestHandler serves the interested-party routes.  Registering
// interest only exists for event rides, so exactly one instance is
// wired, bound to the event-ride coordinator.
type InterestHandler struct {
    Coord *matching.Coordinator
}

func NewInterestHandler(coord *matching.Coordinator) *InterestHandler {
    if coord == nil {
        panic("nil coordinator passed to NewInterestHandler")
    }
    return &InterestHandler{Coord: coord}
}

type interestBody struct {
    EventID   uint64  `json:"event_id"`
    Latitude  float64 `json:"latitude"`
    Longitude float64 `json:"longitude"`
}

// RegisterInterest handles POST /v1/eventrides/interested.  The actor
// announces they want a seat to the given event; drivers see them in
// standing listings.
func (h *InterestHandler) RegisterInterest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body interestBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
    }
    ip, err := h.Coord.RegisterInterest(c.Request().Context(), actor, body.EventID, matching.Location{
        Latitude:  body.Latitude,
        Longitude: body.Longitude,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": ip})
}

// GetInterest handles GET /v1/eventrides/interested/:id.
func (h *InterestHandler) GetInterest(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interest id"})
    }
    ip, err := h.Coord.GetInterest(c.Request().Context(), id)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": ip})
}

// PatchInterest handles PATCH /v1/eventrides/interested/:id.  Only the
// owning participant may move their pickup hint.
func (h *InterestHandler) PatchInterest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interest id"})
    }
    var body interestBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ip, err := h.Coord.PatchInterest(c.Request().Context(), actor, id, matching.Location{
        Latitude:  body.Latitude,
        Longitude: body.Longitude,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": ip})
}

// DeleteInterest handles DELETE /v1/eventrides/interested/:id.  Seat
// requests referencing the interest go with it.
func (h *InterestHandler) DeleteInterest(c echo.Context) error {
    actor, err := actorID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interest id"})
    }
    if err := h.Coord.DeleteInterest(c.Request().Context(), actor, id); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
