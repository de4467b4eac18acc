package model

import "time"

// RideOffer is the shape shared by all three ride variants (event rides,
// generic meeting rides and ad-hoc special rides).  A ride offer is a
// driver's published trip with a fixed seat capacity.  Which table a
// given offer lives in is decided by the repository variant descriptor,
// not by this struct.
//
// Fields:
//  ID                 – primary key identifier.
//  DriverID           – participant who offers the seats; immutable.
//  EventID            – referenced event (event rides only, 0 otherwise).
//  EmptySeats         – total offered capacity.  The number of accepted
//                       seat requests may never exceed this value.
//  StartsAt           – departure time.
//  Description        – free text shown to riders.
//  VehicleDescription – free text describing the vehicle.
//  Latitude/Longitude – departure point, display only.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type RideOffer struct {
    ID                 uint64    `json:"id"`
    DriverID           uint64    `json:"driver_id"`
    EventID            uint64    `json:"event_id,omitempty"`
    EmptySeats         uint32    `json:"empty_seats"`
    StartsAt           time.Time `json:"starts_at"`
    Description        string    `json:"description"`
    VehicleDescription string    `json:"vehicle_description"`
    Latitude           float64   `json:"latitude"`
    Longitude          float64   `json:"longitude"`
    CreatedAt          time.Time `json:"created_at"`
    UpdatedAt          time.Time `json:"updated_at"`
}
