// Package handler contains the HTTP handlers.  Handlers parse and
// validate transport concerns, resolve the acting participant from the
// context populated by the JWT middleware, and delegate every state
// transition to the matching engine; they never touch the database
// directly for ride or request state.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/matching"
)

// actorID extracts the participant identity injected by the JWT
// middleware and converts it to uint64.
func actorID(c echo.Context) (uint64, error) {
    v := c.Get("participant_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid participant_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// parseQueryID parses a positive numeric query parameter value.
func parseQueryID(raw string) (uint64, error) {
    id, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// engineError maps matching engine sentinels to HTTP responses.  The
// ride-full check precedes the generic conflict check because
// ErrRideFull matches ErrConflict too.
func engineError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, matching.ErrRideFull):
        return c.JSON(http.StatusConflict, echo.Map{"error": "ride is full"})
    case errors.Is(err, matching.ErrNothingToPatch):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to patch"})
    case errors.Is(err, matching.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, matching.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, matching.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
