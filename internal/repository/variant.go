// Package repository implements the MySQL persistence layer.  Each
// repository is a thin gateway over one table (or, for the ride and
// request repositories, over the table named by a variant descriptor).
// Methods suffixed Tx run inside a caller-owned transaction; the caller
// must commit or roll back.
package repository

import "github.com/iliyamo/event-carpool/internal/matching"

// Tables names the ride and request tables backing one ride variant.
// One descriptor per variant keeps the three near-identical table pairs
// behind a single repository implementation.
type Tables struct {
    Rides    string
    Requests string
}

// tablesFor maps an engine variant to its tables.
func tablesFor(v matching.Variant) Tables {
    switch v.Kind {
    case "eventride":
        return Tables{Rides: "event_rides", Requests: "event_ride_requests"}
    case "specialride":
        return Tables{Rides: "special_rides", Requests: "special_ride_requests"}
    default:
        return Tables{Rides: "rides", Requests: "ride_requests"}
    }
}
