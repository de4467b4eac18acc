package model

import "time"

// Event is a read-only row from the external event catalog.  The engine
// only ever checks existence and displays the name; events are created
// and maintained elsewhere.
type Event struct {
    ID       uint64    `json:"id"`
    Name     string    `json:"name"`
    StartsAt time.Time `json:"starts_at"`
}
