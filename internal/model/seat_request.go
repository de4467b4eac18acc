package model

import "time"

// SeatRequest records a rider's ask for one seat on a specific ride
// offer.  A request starts out pending (Accepted=false) and either gets
// accepted by the driver, declined back to pending, or deleted (explicit
// cancel by the requester, or the automatic prune when the ride fills).
// There is never more than one request per (ride, requester) pair and a
// driver never holds a request on their own ride.
//
// Fields:
//  ID                – primary key identifier.
//  RideID            – ride offer being requested.
//  RequesterID       – participant asking for the seat.
//  InterestedPartyID – interest registration backing this request
//                      (event rides only, 0 otherwise).
//  Accepted          – true once the driver has granted the seat.
//  Latitude/Longitude – pickup hint, display only.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type SeatRequest struct {
    ID                uint64    `json:"id"`
    RideID            uint64    `json:"ride_id"`
    RequesterID       uint64    `json:"requester_id"`
    InterestedPartyID uint64    `json:"interested_party_id,omitempty"`
    Accepted          bool      `json:"accepted"`
    Latitude          float64   `json:"latitude"`
    Longitude         float64   `json:"longitude"`
    CreatedAt         time.Time `json:"created_at"`
    UpdatedAt         time.Time `json:"updated_at"`
}
