package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/errors"
)

// Store holds the server's in-memory canvases.
type Store struct {
	mu       sync.RWMutex
	cfg      canvas.Config
	limit    int
	logger   *log.Logger
	canvases map[string]*canvas.Canvas
}

// NewStore creates an empty store whose canvases use cfg. A limit of zero
// or less means unbounded.
func NewStore(cfg canvas.Config, limit int, logger *log.Logger) *Store {
	return &Store{
		cfg:      cfg,
		limit:    limit,
		logger:   logger,
		canvases: make(map[string]*canvas.Canvas),
	}
}

// Create adds a new empty canvas and returns its id. It fails with
// CAPACITY_EXCEEDED once the store holds limit canvases.
func (s *Store) Create() (string, *canvas.Canvas, error) {
	c, err := canvas.New(nil,
		canvas.WithConfig(s.cfg),
		canvas.WithLogger(s.logger))
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	if s.limit > 0 && len(s.canvases) >= s.limit {
		s.mu.Unlock()
		return "", nil, errors.New(errors.ErrCodeCapacityExceeded, "server holds the maximum of %d canvases", s.limit)
	}
	s.canvases[id] = c
	s.mu.Unlock()

	s.logger.Debug("created canvas", "canvas", id)
	return id, c, nil
}

// Get returns the canvas with id.
func (s *Store) Get(id string) (*canvas.Canvas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.canvases[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "canvas %q not found", id)
	}
	return c, nil
}

// Len returns the number of canvases.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.canvases)
}
