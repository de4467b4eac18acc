package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/event-carpool/internal/model"
    "github.com/iliyamo/event-carpool/internal/utils"
)

// ParticipantRepo mirrors the 'participants' table.
type ParticipantRepo struct{ DB *sql.DB }

func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const participantColumns = "id, email, password_hash, name, is_active, created_at, updated_at"

func scanParticipant(row *sql.Row) (model.Participant, error) {
    var p model.Participant
    err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
    return p, err
}

// Create inserts a participant and returns its ID.
func (r *ParticipantRepo) Create(ctx context.Context, email, password, name string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO participants (email, password_hash, name) VALUES (?,?,?)",
        email, hash, strings.TrimSpace(name))
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a participant by normalized email.
func (r *ParticipantRepo) GetByEmail(ctx context.Context, email string) (model.Participant, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanParticipant(r.DB.QueryRowContext(ctx,
        "SELECT "+participantColumns+" FROM participants WHERE email=? LIMIT 1", email))
}

// GetByID fetches a participant by id.
func (r *ParticipantRepo) GetByID(ctx context.Context, id uint64) (model.Participant, error) {
    return scanParticipant(r.DB.QueryRowContext(ctx,
        "SELECT "+participantColumns+" FROM participants WHERE id=? LIMIT 1", id))
}

// NamesByIDs returns the display names of the given participants.  The
// ride handlers use this read-only lookup to label drivers and riders
// in listings; unknown IDs are simply absent from the result.
func (r *ParticipantRepo) NamesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
    out := make(map[uint64]string, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    query := "SELECT id, name FROM participants WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var id uint64
        var name string
        if err := rows.Scan(&id, &name); err != nil {
            return nil, err
        }
        out[id] = name
    }
    return out, rows.Err()
}
