// Package sessions keeps live game engines in memory and writes every change through to the save store.
package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/repositories"
	gocache "github.com/patrickmn/go-cache"
)

var (
	ErrNotFound      = errors.NewSentinel("game session not found")
	ErrCaseMismatch  = errors.NewSentinel("save belongs to another case")
	ErrFramingAbsent = errors.NewSentinel("framing run not started")
)

// Store persists game snapshots. It is satisfied by repositories.SaveRepository.
type Store interface {
	Get(ctx context.Context, gameID string) (*models.Save, error)
	Put(ctx context.Context, save models.Save) error
	Delete(ctx context.Context, gameID string) error
}

// Session is one player's live game. Access it only through Registry.Do.
type Session struct {
	mu      sync.Mutex
	ID      string
	Engine  *game.Engine
	Framing *framing.Run
}

func (s *Session) snapshot() models.Save {
	save := models.Save{
		GameID: s.ID,
		CaseID: s.Engine.Catalog().Case.ID,
		State:  s.Engine.State(),
	}
	if s.Framing != nil {
		fs := s.Framing.State()
		save.Framing = &fs
	}
	return save
}

type Registry struct {
	cache   *gocache.Cache
	store   Store
	catalog *game.Catalog
	graph   *framing.Graph
	logger  *slog.Logger
	// loading serializes cache misses so a save is restored at most once.
	loading sync.Mutex
}

// NewRegistry creates a registry that keeps idle sessions in memory for ttl.
func NewRegistry(store Store, catalog *game.Catalog, graph *framing.Graph, ttl time.Duration,
	logger *slog.Logger) *Registry {
	return &Registry{
		cache:   gocache.New(ttl, ttl/2), //nolint:mnd // clean up twice per TTL.
		store:   store,
		catalog: catalog,
		graph:   graph,
		logger:  logger.With(slog.String("source", "sessions")),
	}
}

// Catalog returns the case every session in the registry plays.
func (r *Registry) Catalog() *game.Catalog {
	return r.catalog
}

// Create starts a new game with a fresh id and persists its initial state.
func (r *Registry) Create(ctx context.Context) (string, error) {
	s := &Session{
		ID:     uuid.NewString(),
		Engine: game.NewEngine(r.catalog, r.logger),
	}
	if err := r.store.Put(ctx, s.snapshot()); err != nil {
		return "", errors.Wrap(err, "persist new game")
	}
	r.cache.SetDefault(s.ID, s)
	r.logger.LogAttrs(ctx, slog.LevelInfo, "game created", slog.String("game_id", s.ID))
	return s.ID, nil
}

// Do runs fn with exclusive access to the session. When fn reports a change the snapshot is saved. If fn fails or the
// save cannot be written, the session is rolled back so memory never runs ahead of storage.
func (r *Registry) Do(ctx context.Context, gameID string, fn func(s *Session) (bool, error)) error {
	s, err := r.get(ctx, gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.snapshot()
	changed, err := fn(s)
	if err != nil {
		r.rollback(s, before)
		return err
	}
	if !changed {
		return nil
	}
	if err = r.store.Put(ctx, s.snapshot()); err != nil {
		r.rollback(s, before)
		return errors.Wrap(err, "persist game", slog.String("game_id", gameID))
	}
	// Refresh the TTL on activity.
	r.cache.SetDefault(gameID, s)
	return nil
}

func (r *Registry) rollback(s *Session, save models.Save) {
	s.Engine = game.Restore(r.catalog, save.State, r.logger)
	s.Framing = nil
	if save.Framing != nil {
		s.Framing = framing.Restore(r.graph, *save.Framing, r.logger)
	}
}

// Apply applies one intent to the session's engine.
func (r *Registry) Apply(ctx context.Context, gameID string, in game.Intent) (game.Delta, game.Progress, error) {
	var (
		delta    game.Delta
		progress game.Progress
	)
	err := r.Do(ctx, gameID, func(s *Session) (bool, error) {
		delta = s.Engine.Apply(ctx, in)
		progress = s.Engine.Progress()
		return delta.Applied, nil
	})
	return delta, progress, err
}

// View runs fn with exclusive read access to the session.
func (r *Registry) View(ctx context.Context, gameID string, fn func(s *Session)) error {
	return r.Do(ctx, gameID, func(s *Session) (bool, error) {
		fn(s)
		return false, nil
	})
}

// StartFraming begins, or restarts, the timed variant for the session.
func (r *Registry) StartFraming(ctx context.Context, gameID string) (framing.State, error) {
	var state framing.State
	err := r.Do(ctx, gameID, func(s *Session) (bool, error) {
		if s.Framing == nil {
			s.Framing = framing.NewRun(r.graph, r.logger)
		} else {
			s.Framing.Reset()
		}
		state = s.Framing.State()
		return true, nil
	})
	return state, err
}

// Framing runs fn against the session's framing run. fn reports whether the run changed.
func (r *Registry) Framing(ctx context.Context, gameID string, fn func(run *framing.Run) (bool, error)) error {
	return r.Do(ctx, gameID, func(s *Session) (bool, error) {
		if s.Framing == nil {
			return false, errors.Wrap(ErrFramingAbsent, "framing", slog.String("game_id", gameID))
		}
		return fn(s.Framing)
	})
}

// Forget drops the session from memory and storage.
func (r *Registry) Forget(ctx context.Context, gameID string) error {
	r.cache.Delete(gameID)
	if err := r.store.Delete(ctx, gameID); err != nil {
		return errors.Wrap(err, "delete save", slog.String("game_id", gameID))
	}
	return nil
}

// Live returns the number of sessions held in memory.
func (r *Registry) Live() int {
	return r.cache.ItemCount()
}

func (r *Registry) get(ctx context.Context, gameID string) (*Session, error) {
	if s, ok := r.cache.Get(gameID); ok {
		return s.(*Session), nil //nolint:forcetypeassert // only sessions are stored.
	}

	r.loading.Lock()
	defer r.loading.Unlock()
	if s, ok := r.cache.Get(gameID); ok {
		return s.(*Session), nil //nolint:forcetypeassert // only sessions are stored.
	}

	save, err := r.store.Get(ctx, gameID)
	if errors.Is(err, repositories.ErrSaveNotFound) {
		return nil, errors.Join(ErrNotFound, errors.Wrap(err, "load save", slog.String("game_id", gameID)))
	}
	if err != nil {
		return nil, errors.Wrap(err, "load save", slog.String("game_id", gameID))
	}
	if save.CaseID != r.catalog.Case.ID {
		return nil, errors.Wrap(ErrCaseMismatch, "load save",
			slog.String("game_id", gameID), slog.String("case", save.CaseID))
	}
	s := &Session{
		ID:     gameID,
		Engine: game.Restore(r.catalog, save.State, r.logger),
	}
	if save.Framing != nil {
		s.Framing = framing.Restore(r.graph, *save.Framing, r.logger)
	}
	r.cache.SetDefault(gameID, s)
	r.logger.LogAttrs(ctx, slog.LevelDebug, "game restored", slog.String("game_id", gameID))
	return s, nil
}
