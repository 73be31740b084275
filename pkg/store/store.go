// Package store persists editing sessions.
//
// A session is a named floor plan with its wall defaults; the [Store]
// interface abstracts the backend. Five backends are provided: in-memory
// (tests and the default server mode), a JSON file directory (single-user
// CLI persistence), Redis, MongoDB, and Postgres. [Open] picks one from the
// configuration.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/floorsmith/pkg/config"
	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
)

// Session is a saved floor plan under a stable ID.
type Session struct {
	ID        string            `json:"id" bson:"_id"`
	Name      string            `json:"name" bson:"name"`
	Spaces    []plan.Space      `json:"spaces" bson:"spaces"`
	Walls     plan.WallSettings `json:"walls" bson:"walls"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// NewSession builds a session with a fresh UUID and timestamps.
func NewSession(name string, spaces []plan.Space, walls plan.WallSettings) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Spaces:    plan.CloneSpaces(spaces),
		Walls:     walls,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone deep-copies the session.
func (s *Session) Clone() *Session {
	out := *s
	out.Spaces = plan.CloneSpaces(s.Spaces)
	return &out
}

// Summary is the listing shape: session metadata without the plan payload.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Spaces    int       `json:"spaces" bson:"spaces"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store persists sessions. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the session with the given ID, or a SESSION_NOT_FOUND
	// error when it does not exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Put creates or replaces a session, bumping UpdatedAt.
	Put(ctx context.Context, sess *Session) error

	// Delete removes a session; deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all sessions, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Open builds the store selected by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.File.Dir)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "mongo":
		return NewMongoStore(ctx, cfg.Mongo)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "no session %q", id)
}

func summarize(sess *Session) Summary {
	return Summary{
		ID:        sess.ID,
		Name:      sess.Name,
		Spaces:    len(sess.Spaces),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

func sortSummaries(out []Summary) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
}
