package model

import "time"

// Participant mirrors the 'participants' table.  Participants are the
// actors of the system: any participant may offer rides as a driver or
// request seats as a rider.  The name is exposed read-only to other
// participants when listing rides and requests.
type Participant struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Name         string    `json:"name"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
