package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/config"
    "github.com/iliyamo/event-carpool/internal/database"
    "github.com/iliyamo/event-carpool/internal/handler"
    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/middleware"
    "github.com/iliyamo/event-carpool/internal/queue"
    "github.com/iliyamo/event-carpool/internal/repository"
    "github.com/iliyamo/event-carpool/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real environments set vars directly
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer db.Close()

    participants := repository.NewParticipantRepo(db)
    tokens := repository.NewTokenRepo(db)
    events := repository.NewEventRepo(db)

    // One coordinator per ride variant, all sharing the same engine.
    eventRides := matching.NewCoordinator(repository.NewMatchStore(db, matching.EventRides), matching.EventRides)
    rides := matching.NewCoordinator(repository.NewMatchStore(db, matching.GenericRides), matching.GenericRides)
    specialRides := matching.NewCoordinator(repository.NewMatchStore(db, matching.SpecialRides), matching.SpecialRides)

    pub := handler.AMQPPublisher{}
    eventRideH := handler.NewRideHandler(eventRides, participants, pub)
    rideH := handler.NewRideHandler(rides, participants, pub)
    specialRideH := handler.NewRideHandler(specialRides, participants, pub)
    interestH := handler.NewInterestHandler(eventRides)
    authH := handler.NewAuthHandler(cfg, participants, tokens)
    eventH := handler.NewEventHandler(events)

    // Redis powers rate limiting and the listing cache; both degrade to
    // no-ops when the client is unavailable.
    rdb := config.NewRedisClient()
    var rateMW, cacheMW echo.MiddlewareFunc
    if rdb != nil {
        rateMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
        cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    } else {
        log.Println("redis unavailable; rate limiting and response cache disabled")
    }

    go func() {
        if err := queue.StartRideEventsConsumer(); err != nil {
            log.Printf("ride events consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, eventH, eventRideH, rideH, specialRideH, cacheMW)
    router.RegisterRides(e, eventRideH, rideH, specialRideH, interestH, cfg.JWTSecret, rateMW)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
