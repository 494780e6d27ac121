package memory

import (
	"context"
	"sync"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/pkg/errors"
)

// EntityStore holds source entities of every kind in process memory.
// Used for local development and tests in place of the DynamoDB tables.
type EntityStore struct {
	mu     sync.RWMutex
	byKind map[entities.EntityKind]map[string]entities.SourceEntity
}

// NewEntityStore creates an empty entity store
func NewEntityStore() *EntityStore {
	byKind := make(map[entities.EntityKind]map[string]entities.SourceEntity)
	for _, kind := range entities.AllEntityKinds() {
		byKind[kind] = make(map[string]entities.SourceEntity)
	}
	return &EntityStore{byKind: byKind}
}

// Put stores an entity under its own kind and ID
func (s *EntityStore) Put(entity entities.SourceEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKind[entity.Kind()][entity.EntityID()] = entity
}

// Delete removes an entity, if present
func (s *EntityStore) Delete(kind entities.EntityKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byID, ok := s.byKind[kind]; ok {
		delete(byID, id)
	}
}

// get returns one entity or nil
func (s *EntityStore) get(kind entities.EntityKind, id string) entities.SourceEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byKind[kind][id]
}

// getMany returns the entities that exist among the given IDs
func (s *EntityStore) getMany(kind entities.EntityKind, ids []string) map[string]entities.SourceEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]entities.SourceEntity, len(ids))
	for _, id := range ids {
		if entity, ok := s.byKind[kind][id]; ok {
			out[id] = entity
		}
	}
	return out
}

// kindGateway adapts one kind's slice of the store to the gateway port
type kindGateway struct {
	store *EntityStore
	kind  entities.EntityKind
}

func (g *kindGateway) Kind() entities.EntityKind { return g.kind }

func (g *kindGateway) GetByID(ctx context.Context, id string) (entities.SourceEntity, error) {
	entity := g.store.get(g.kind, id)
	if entity == nil {
		return nil, errors.NewNotFound("entity not found: " + id)
	}
	return entity, nil
}

func (g *kindGateway) GetByIDs(ctx context.Context, ids []string) (map[string]entities.SourceEntity, error) {
	return g.store.getMany(g.kind, ids), nil
}

// Gateways returns one gateway per known entity kind, all backed by the
// given store
func Gateways(store *EntityStore) []ports.SourceEntityGateway {
	kinds := entities.AllEntityKinds()
	out := make([]ports.SourceEntityGateway, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, &kindGateway{store: store, kind: kind})
	}
	return out
}
