// Package matchingtest provides an in-memory matching.Store for tests.
// One store-wide mutex is held from Begin until Commit or Rollback,
// which gives transactions the same serialization the SQL store gets
// from its row locks, so the engine's concurrency protocol can be
// exercised with plain goroutines.
package matchingtest

import (
    "context"
    "sort"
    "sync"

    "github.com/iliyamo/event-carpool/internal/matching"
    "github.com/iliyamo/event-carpool/internal/model"
)

// Store is an in-memory implementation of matching.Store.
type Store struct {
    mu sync.Mutex

    rides     map[uint64]model.RideOffer
    requests  map[uint64]model.SeatRequest
    interests map[uint64]model.InterestedParty
    events    map[uint64]bool

    nextRide     uint64
    nextRequest  uint64
    nextInterest uint64
}

// New returns an empty store.
func New() *Store {
    return &Store{
        rides:     map[uint64]model.RideOffer{},
        requests:  map[uint64]model.SeatRequest{},
        interests: map[uint64]model.InterestedParty{},
        events:    map[uint64]bool{},
    }
}

// ----- seeding helpers for tests -----

// AddEvent marks an event id as existing in the catalog.
func (s *Store) AddEvent(id uint64) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.events[id] = true
}

// SeedRide inserts a ride directly, assigning an id when ride.ID is 0.
func (s *Store) SeedRide(ride model.RideOffer) model.RideOffer {
    s.mu.Lock()
    defer s.mu.Unlock()
    if ride.ID == 0 {
        s.nextRide++
        ride.ID = s.nextRide
    } else if ride.ID > s.nextRide {
        s.nextRide = ride.ID
    }
    s.rides[ride.ID] = ride
    return ride
}

// SeedRequest inserts a seat request directly.
func (s *Store) SeedRequest(req model.SeatRequest) model.SeatRequest {
    s.mu.Lock()
    defer s.mu.Unlock()
    if req.ID == 0 {
        s.nextRequest++
        req.ID = s.nextRequest
    } else if req.ID > s.nextRequest {
        s.nextRequest = req.ID
    }
    s.requests[req.ID] = req
    return req
}

// SeedInterest inserts an interest registration directly.
func (s *Store) SeedInterest(ip model.InterestedParty) model.InterestedParty {
    s.mu.Lock()
    defer s.mu.Unlock()
    if ip.ID == 0 {
        s.nextInterest++
        ip.ID = s.nextInterest
    } else if ip.ID > s.nextInterest {
        s.nextInterest = ip.ID
    }
    s.interests[ip.ID] = ip
    return ip
}

// RequestCount reports how many seat requests exist for a ride,
// optionally restricted to accepted ones.
func (s *Store) RequestCount(rideID uint64, acceptedOnly bool) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for _, req := range s.requests {
        if req.RideID != rideID {
            continue
        }
        if acceptedOnly && !req.Accepted {
            continue
        }
        n++
    }
    return n
}

// HasRequest reports whether a request id still exists.
func (s *Store) HasRequest(id uint64) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.requests[id]
    return ok
}

// HasInterest reports whether an interest id still exists.
func (s *Store) HasInterest(id uint64) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.interests[id]
    return ok
}

// ----- matching.Store -----

func (s *Store) Begin(ctx context.Context) (matching.Tx, error) {
    s.mu.Lock()
    return &tx{s: s}, nil
}

func (s *Store) GetRide(ctx context.Context, rideID uint64) (model.RideOffer, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.getRide(rideID)
}

func (s *Store) ListRides(ctx context.Context, eventID uint64) ([]model.RideOffer, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.RideOffer
    for _, ride := range s.rides {
        if eventID != 0 && ride.EventID != eventID {
            continue
        }
        out = append(out, ride)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.getRequest(requestID)
}

func (s *Store) ListRequestsByRide(ctx context.Context, rideID uint64) ([]model.SeatRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.SeatRequest
    for _, req := range s.requests {
        if req.RideID == rideID {
            out = append(out, req)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *Store) GetInterest(ctx context.Context, interestID uint64) (model.InterestedParty, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    ip, ok := s.interests[interestID]
    if !ok {
        return model.InterestedParty{}, matching.ErrNotFound
    }
    return ip, nil
}

func (s *Store) getRide(rideID uint64) (model.RideOffer, error) {
    ride, ok := s.rides[rideID]
    if !ok {
        return model.RideOffer{}, matching.ErrNotFound
    }
    return ride, nil
}

func (s *Store) getRequest(requestID uint64) (model.SeatRequest, error) {
    req, ok := s.requests[requestID]
    if !ok {
        return model.SeatRequest{}, matching.ErrNotFound
    }
    return req, nil
}

// ----- matching.Tx -----

type tx struct {
    s    *Store
    done bool
}

func (t *tx) finish() {
    if !t.done {
        t.done = true
        t.s.mu.Unlock()
    }
}

func (t *tx) Commit() error   { t.finish(); return nil }
func (t *tx) Rollback() error { t.finish(); return nil }

func (t *tx) RideForUpdate(ctx context.Context, rideID uint64) (model.RideOffer, error) {
    return t.s.getRide(rideID)
}

func (t *tx) RideByDriver(ctx context.Context, driverID, eventID uint64) (model.RideOffer, error) {
    for _, ride := range t.s.rides {
        if ride.DriverID != driverID {
            continue
        }
        if eventID != 0 && ride.EventID != eventID {
            continue
        }
        return ride, nil
    }
    return model.RideOffer{}, matching.ErrNotFound
}

func (t *tx) InsertRide(ctx context.Context, ride *model.RideOffer) error {
    t.s.nextRide++
    ride.ID = t.s.nextRide
    t.s.rides[ride.ID] = *ride
    return nil
}

func (t *tx) UpdateRide(ctx context.Context, ride model.RideOffer) error {
    if _, ok := t.s.rides[ride.ID]; !ok {
        return matching.ErrNotFound
    }
    t.s.rides[ride.ID] = ride
    return nil
}

func (t *tx) DeleteRide(ctx context.Context, rideID uint64) error {
    delete(t.s.rides, rideID)
    return nil
}

func (t *tx) CountAccepted(ctx context.Context, rideID uint64) (int, error) {
    n := 0
    for _, req := range t.s.requests {
        if req.RideID == rideID && req.Accepted {
            n++
        }
    }
    return n, nil
}

func (t *tx) GetRequest(ctx context.Context, requestID uint64) (model.SeatRequest, error) {
    return t.s.getRequest(requestID)
}

func (t *tx) RequestByRequester(ctx context.Context, rideID, requesterID uint64) (model.SeatRequest, error) {
    for _, req := range t.s.requests {
        if req.RideID == rideID && req.RequesterID == requesterID {
            return req, nil
        }
    }
    return model.SeatRequest{}, matching.ErrNotFound
}

func (t *tx) InsertRequest(ctx context.Context, req *model.SeatRequest) error {
    t.s.nextRequest++
    req.ID = t.s.nextRequest
    t.s.requests[req.ID] = *req
    return nil
}

func (t *tx) SetRequestAccepted(ctx context.Context, requestID uint64, accepted bool) error {
    req, ok := t.s.requests[requestID]
    if !ok {
        return matching.ErrNotFound
    }
    req.Accepted = accepted
    t.s.requests[requestID] = req
    return nil
}

func (t *tx) UpdateRequestLocation(ctx context.Context, requestID uint64, lat, lng float64) error {
    req, ok := t.s.requests[requestID]
    if !ok {
        return matching.ErrNotFound
    }
    req.Latitude = lat
    req.Longitude = lng
    t.s.requests[requestID] = req
    return nil
}

func (t *tx) DeleteRequest(ctx context.Context, requestID uint64) error {
    delete(t.s.requests, requestID)
    return nil
}

func (t *tx) DeletePendingRequests(ctx context.Context, rideID, exceptID uint64) ([]uint64, error) {
    var ids []uint64
    for id, req := range t.s.requests {
        if req.RideID == rideID && !req.Accepted && id != exceptID {
            ids = append(ids, id)
        }
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    for _, id := range ids {
        delete(t.s.requests, id)
    }
    return ids, nil
}

func (t *tx) DeleteRequestsByRide(ctx context.Context, rideID uint64) error {
    for id, req := range t.s.requests {
        if req.RideID == rideID {
            delete(t.s.requests, id)
        }
    }
    return nil
}

func (t *tx) InterestForUpdate(ctx context.Context, interestID uint64) (model.InterestedParty, error) {
    ip, ok := t.s.interests[interestID]
    if !ok {
        return model.InterestedParty{}, matching.ErrNotFound
    }
    return ip, nil
}

func (t *tx) InterestByParticipant(ctx context.Context, participantID uint64) (model.InterestedParty, error) {
    for _, ip := range t.s.interests {
        if ip.ParticipantID == participantID {
            return ip, nil
        }
    }
    return model.InterestedParty{}, matching.ErrNotFound
}

func (t *tx) InsertInterest(ctx context.Context, ip *model.InterestedParty) error {
    t.s.nextInterest++
    ip.ID = t.s.nextInterest
    t.s.interests[ip.ID] = *ip
    return nil
}

func (t *tx) UpdateInterest(ctx context.Context, ip model.InterestedParty) error {
    if _, ok := t.s.interests[ip.ID]; !ok {
        return matching.ErrNotFound
    }
    t.s.interests[ip.ID] = ip
    return nil
}

func (t *tx) DeleteInterest(ctx context.Context, interestID uint64) error {
    delete(t.s.interests, interestID)
    return nil
}

func (t *tx) DeleteRequestsByInterest(ctx context.Context, interestID uint64) error {
    for id, req := range t.s.requests {
        if req.InterestedPartyID == interestID {
            delete(t.s.requests, id)
        }
    }
    return nil
}

func (t *tx) EventExists(ctx context.Context, eventID uint64) (bool, error) {
    return t.s.events[eventID], nil
}
