// Package mocks provides mock implementations of the application ports for testing.
package mocks

import (
	"context"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"github.com/stretchr/testify/mock"
)

// MockCardStore is a testify mock for ports.CardStore
type MockCardStore struct {
	mock.Mock
}

var _ ports.CardStore = (*MockCardStore)(nil)

func (m *MockCardStore) FindByID(ctx context.Context, cardID string) (*entities.Card, error) {
	args := m.Called(ctx, cardID)
	if card, ok := args.Get(0).(*entities.Card); ok {
		return card, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardStore) FindManyByIDs(ctx context.Context, cardIDs []string) ([]*entities.Card, error) {
	args := m.Called(ctx, cardIDs)
	if cards, ok := args.Get(0).([]*entities.Card); ok {
		return cards, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardStore) Search(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error) {
	args := m.Called(ctx, userID, query, limit)
	if cards, ok := args.Get(0).([]*entities.Card); ok {
		return cards, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardStore) List(ctx context.Context, query ports.CardListQuery) (*ports.CardListPage, error) {
	args := m.Called(ctx, query)
	if page, ok := args.Get(0).(*ports.CardListPage); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGateway is a testify mock for ports.SourceEntityGateway with a
// configurable entity kind
type MockGateway struct {
	mock.Mock
	EntityKind entities.EntityKind
}

var _ ports.SourceEntityGateway = (*MockGateway)(nil)

// NewMockGateway creates a gateway mock that reports the given kind
func NewMockGateway(kind entities.EntityKind) *MockGateway {
	return &MockGateway{EntityKind: kind}
}

func (m *MockGateway) Kind() entities.EntityKind {
	return m.EntityKind
}

func (m *MockGateway) GetByID(ctx context.Context, entityID string) (entities.SourceEntity, error) {
	args := m.Called(ctx, entityID)
	if entity, ok := args.Get(0).(entities.SourceEntity); ok {
		return entity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetByIDs(ctx context.Context, entityIDs []string) (map[string]entities.SourceEntity, error) {
	args := m.Called(ctx, entityIDs)
	if result, ok := args.Get(0).(map[string]entities.SourceEntity); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}
