package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	"cosmos-backend/pkg/errors"
)

// CardStore is an in-memory ports.CardStore for local development and
// tests. It reads display text through the entity store so search and
// title sorting behave like the real backend.
type CardStore struct {
	entityStore *EntityStore

	mu    sync.RWMutex
	cards map[string]*entities.Card
}

// compile-time conformance check
var _ ports.CardStore = (*CardStore)(nil)

// NewCardStore creates an empty card store backed by the given entity store
func NewCardStore(entityStore *EntityStore) *CardStore {
	return &CardStore{
		entityStore: entityStore,
		cards:       make(map[string]*entities.Card),
	}
}

// Put stores a card, overwriting any previous row with the same ID
func (s *CardStore) Put(card *entities.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *card
	s.cards[card.ID] = &copied
}

// Delete removes a card, if present
func (s *CardStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, id)
}

// FindByID retrieves a card by its ID
func (s *CardStore) FindByID(ctx context.Context, id string) (*entities.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[id]
	if !ok {
		return nil, errors.NewNotFound("card not found: " + id)
	}
	copied := *card
	return &copied, nil
}

// FindManyByIDs retrieves the cards that exist among the given IDs
func (s *CardStore) FindManyByIDs(ctx context.Context, ids []string) ([]*entities.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Card, 0, len(ids))
	for _, id := range ids {
		if card, ok := s.cards[id]; ok {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Search finds a user's cards whose display title or content contains the
// query, case-insensitively
func (s *CardStore) Search(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error) {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(query)

	s.mu.RLock()
	candidates := s.ownedByLocked(userID)
	s.mu.RUnlock()

	// Stable order so repeated searches return candidates
	// deterministically.
	sortCards(candidates, valueobjects.SortFieldCreatedAt, valueobjects.SortOrderDesc, s.displayTitle)

	out := make([]*entities.Card, 0, limit)
	for _, card := range candidates {
		title := strings.ToLower(s.displayTitle(card))
		content := strings.ToLower(s.displayContent(card))
		if strings.Contains(title, needle) || strings.Contains(content, needle) {
			copied := *card
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// List returns one sorted page of a user's cards
func (s *CardStore) List(ctx context.Context, query ports.CardListQuery) (*ports.CardListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	owned := s.ownedByLocked(query.UserID)
	s.mu.RUnlock()

	if query.FavoritedOnly {
		filtered := owned[:0]
		for _, card := range owned {
			if card.IsFavorited {
				filtered = append(filtered, card)
			}
		}
		owned = filtered
	}

	sortCards(owned, query.SortField, query.SortOrder, s.displayTitle)
	if query.CoverFirst {
		coverFirst(owned)
	}

	total := len(owned)
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	var pageCards []*entities.Card
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		pageCards = make([]*entities.Card, 0, end-offset)
		for _, card := range owned[offset:end] {
			copied := *card
			pageCards = append(pageCards, &copied)
		}
	}

	return &ports.CardListPage{
		Cards:      pageCards,
		TotalCount: total,
		HasMore:    offset+len(pageCards) < total,
	}, nil
}

// ownedByLocked collects a user's cards. Caller holds at least a read lock.
func (s *CardStore) ownedByLocked(userID string) []*entities.Card {
	out := make([]*entities.Card, 0)
	for _, card := range s.cards {
		if card.OwnerID == userID {
			out = append(out, card)
		}
	}
	return out
}

func (s *CardStore) displayTitle(card *entities.Card) string {
	if card.CustomTitle != nil {
		return *card.CustomTitle
	}
	if entity := s.entityStore.get(card.SourceEntityKind, card.SourceEntityID); entity != nil {
		return entity.DisplayTitle()
	}
	return entities.FallbackTitle
}

func (s *CardStore) displayContent(card *entities.Card) string {
	if card.CustomContent != nil {
		return *card.CustomContent
	}
	if entity := s.entityStore.get(card.SourceEntityKind, card.SourceEntityID); entity != nil {
		return entity.DisplayContent()
	}
	return entities.FallbackContent
}

// sortCards orders cards by the given field and direction, breaking ties
// by card ID for a deterministic total order
func sortCards(cards []*entities.Card, field valueobjects.SortField, order valueobjects.SortOrder, title func(*entities.Card) string) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		var less bool
		switch field {
		case valueobjects.SortFieldTitle:
			ta, tb := strings.ToLower(title(a)), strings.ToLower(title(b))
			if ta == tb {
				return a.ID < b.ID
			}
			less = ta < tb
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if order == valueobjects.SortOrderDesc {
			return !less
		}
		return less
	})
}

// coverFirst stably moves cards with a background image ahead of the rest
func coverFirst(cards []*entities.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].HasCover() && !cards[j].HasCover()
	})
}
