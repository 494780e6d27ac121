package ports

import (
	"context"
	"fmt"
	"strings"

	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
)

// CardStore defines the interface for card persistence and search.
// This is a port in hexagonal architecture - the application layer doesn't
// know about the implementation.
type CardStore interface {
	// FindByID retrieves a card by its ID; a missing card is a NotFound error
	FindByID(ctx context.Context, id string) (*entities.Card, error)

	// FindManyByIDs retrieves the cards that exist among the given IDs.
	// Missing IDs are silently absent from the result.
	FindManyByIDs(ctx context.Context, ids []string) ([]*entities.Card, error)

	// Search finds a user's cards whose display text matches the query
	Search(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error)

	// List returns one sorted page of a user's cards with a count envelope
	List(ctx context.Context, query CardListQuery) (*CardListPage, error)
}

// CardListQuery defines the parameters for a sorted card listing
type CardListQuery struct {
	UserID        string
	Limit         int
	Offset        int
	SortField     valueobjects.SortField
	SortOrder     valueobjects.SortOrder
	CoverFirst    bool
	FavoritedOnly bool
}

// CardListPage is one page of a sorted card listing
type CardListPage struct {
	Cards      []*entities.Card
	TotalCount int
	HasMore    bool
}

// SourceEntityGateway defines typed access to one source-entity table
type SourceEntityGateway interface {
	// Kind identifies which entity table this gateway reads
	Kind() entities.EntityKind

	// GetByID retrieves one entity; a missing row is a NotFound error
	GetByID(ctx context.Context, id string) (entities.SourceEntity, error)

	// GetByIDs retrieves the entities that exist among the given IDs,
	// keyed by entity ID. Missing IDs are silently absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]entities.SourceEntity, error)
}

// GatewayRegistry dispatches from an entity kind to its gateway
type GatewayRegistry struct {
	gateways map[entities.EntityKind]SourceEntityGateway
}

// NewGatewayRegistry builds a registry and verifies that every known entity
// kind has exactly one gateway, so a newly added kind cannot silently fall
// through to a missing lookup.
func NewGatewayRegistry(gateways ...SourceEntityGateway) (*GatewayRegistry, error) {
	byKind := make(map[entities.EntityKind]SourceEntityGateway, len(gateways))
	for _, gw := range gateways {
		if _, exists := byKind[gw.Kind()]; exists {
			return nil, fmt.Errorf("duplicate gateway for entity kind %s", gw.Kind())
		}
		byKind[gw.Kind()] = gw
	}

	var missing []string
	for _, kind := range entities.AllEntityKinds() {
		if _, ok := byKind[kind]; !ok {
			missing = append(missing, kind.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no gateway registered for entity kinds: %s", strings.Join(missing, ", "))
	}

	return &GatewayRegistry{gateways: byKind}, nil
}

// ForKind returns the gateway for the given entity kind
func (r *GatewayRegistry) ForKind(kind entities.EntityKind) (SourceEntityGateway, bool) {
	gw, ok := r.gateways[kind]
	return gw, ok
}
