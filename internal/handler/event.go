package handler

import (
    "database/sql"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/repository"
)

// EventHandler exposes the read-only event catalog so clients can
// browse events before offering or requesting rides.
type EventHandler struct {
    Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
    return &EventHandler{Events: events}
}

// ListEvents handles GET /v1/events.
func (h *EventHandler) ListEvents(c echo.Context) error {
    events, err := h.Events.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ev, err := h.Events.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": ev})
}
