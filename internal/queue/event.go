// Package queue defines message payloads exchanged over the message broker.
package queue

// RequestAcceptedEvent is published when a driver accepts a seat
// request.  It carries enough for downstream consumers (notification
// senders, analytics) to act without querying the primary database.
type RequestAcceptedEvent struct {
    RideKind    string `json:"ride_kind"` // eventride | ride | specialride
    RideID      uint64 `json:"ride_id"`
    RequestID   uint64 `json:"request_id"`
    DriverID    uint64 `json:"driver_id"`
    RequesterID uint64 `json:"requester_id"`
    AcceptedAt  string `json:"accepted_at"`
}

// RideFilledEvent is published when an accept takes the last free seat
// and the competing pending requests have been pruned.  PrunedRequestIDs
// lets consumers notify the riders whose requests were removed.
type RideFilledEvent struct {
    RideKind         string   `json:"ride_kind"`
    RideID           uint64   `json:"ride_id"`
    DriverID         uint64   `json:"driver_id"`
    EmptySeats       uint32   `json:"empty_seats"`
    PrunedRequestIDs []uint64 `json:"pruned_request_ids"`
    FilledAt         string   `json:"filled_at"`
}
