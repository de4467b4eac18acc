package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/handler"
    "github.com/iliyamo/event-carpool/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // /refresh rotates the refresh token; /refresh-access only mints a
    // new access token.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts either a bearer token (revoke all sessions) or a
    // refresh_token body (revoke one), so it stays outside the JWT
    // middleware.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints: the event
// catalog and the ride listings.  cacheMW may be nil when Redis is not
// configured; listings are then served uncached.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler,
    eventRides, rides, specialRides *handler.RideHandler,
    cacheMW echo.MiddlewareFunc) {

    mws := []echo.MiddlewareFunc{}
    if cacheMW != nil {
        mws = append(mws, cacheMW)
    }
    e.GET("/v1/events", ev.ListEvents, mws...)
    e.GET("/v1/events/:id", ev.GetEvent, mws...)
    e.GET("/v1/eventrides", eventRides.ListRides, mws...)
    e.GET("/v1/eventrides/:id", eventRides.GetRide, mws...)
    e.GET("/v1/rides", rides.ListRides, mws...)
    e.GET("/v1/rides/:id", rides.GetRide, mws...)
    e.GET("/v1/specialrides", specialRides.ListRides, mws...)
    e.GET("/v1/specialrides/:id", specialRides.GetRide, mws...)
}

// RegisterRides registers the protected ride, seat-request and
// interested-party routes for all three ride variants.  All routes
// require a valid access token; rateMW may be nil when rate limiting is
// disabled.
func RegisterRides(e *echo.Echo, eventRides, rides, specialRides *handler.RideHandler,
    interest *handler.InterestHandler, jwtSecret string, rateMW echo.MiddlewareFunc) {

    mws := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}
    if rateMW != nil {
        mws = append(mws, rateMW)
    }

    register := func(prefix string, h *handler.RideHandler) *echo.Group {
        g := e.Group(prefix, mws...)
        g.POST("", h.CreateRide)
        g.PATCH("/:id", h.PatchRide)
        g.DELETE("/:id", h.DeleteRide)
        g.POST("/:id/requests", h.CreateRequest)
        g.PATCH("/requests/:id", h.PatchRequest)
        g.DELETE("/requests/:id", h.DeleteRequest)
        return g
    }

    eg := register("/v1/eventrides", eventRides)
    register("/v1/rides", rides)
    register("/v1/specialrides", specialRides)

    // Interest routes only exist for event rides; the static
    // "interested" segment wins over the :id parameter in the echo
    // router.
    eg.POST("/interested", interest.RegisterInterest)
    eg.GET("/interested/:id", interest.GetInterest)
    eg.PATCH("/interested/:id", interest.PatchInterest)
    eg.DELETE("/interested/:id", interest.DeleteInterest)
}
