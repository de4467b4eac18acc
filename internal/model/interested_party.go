package model

import "time"

// InterestedParty is a participant's declared need for a ride to an
// event, registered before any concrete ride exists.  Holding one is the
// prerequisite for requesting a seat on an event ride.  A participant
// has at most one active interest across all events, and the record is
// destroyed the moment the participant offers an event ride themselves.
//
// Fields:
//  ID                 – primary key identifier.
//  ParticipantID      – owning participant.
//  EventID            – event the participant needs a ride to.
//  Latitude/Longitude – pickup location, display only.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type InterestedParty struct {
    ID            uint64    `json:"id"`
    ParticipantID uint64    `json:"participant_id"`
    EventID       uint64    `json:"event_id"`
    Latitude      float64   `json:"latitude"`
    Longitude     float64   `json:"longitude"`
    CreatedAt     time.Time `json:"created_at"`
    UpdatedAt     time.Time `json:"updated_at"`
}
