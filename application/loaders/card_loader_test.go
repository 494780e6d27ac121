package loaders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	appErrors "cosmos-backend/pkg/errors"
	"cosmos-backend/tests/fixtures"
	"cosmos-backend/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRegistry builds a registry covering every entity kind. Kinds not in
// overrides get a mock that finds nothing.
func newTestRegistry(t *testing.T, overrides map[entities.EntityKind]*mocks.MockGateway) *ports.GatewayRegistry {
	t.Helper()

	gateways := make([]ports.SourceEntityGateway, 0, len(entities.AllEntityKinds()))
	for _, kind := range entities.AllEntityKinds() {
		if gw, ok := overrides[kind]; ok {
			gateways = append(gateways, gw)
			continue
		}
		gw := mocks.NewMockGateway(kind)
		gw.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]entities.SourceEntity{}, nil).Maybe()
		gw.On("GetByID", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("not configured")).Maybe()
		gateways = append(gateways, gw)
	}

	registry, err := ports.NewGatewayRegistry(gateways...)
	require.NoError(t, err)
	return registry
}

func newTestLoader(t *testing.T, cards ports.CardStore, overrides map[entities.EntityKind]*mocks.MockGateway) *CardLoader {
	t.Helper()
	registry := newTestRegistry(t, overrides)
	return NewCardLoader(cards, registry, time.Millisecond, 25, nil, zap.NewNop())
}

func TestCardLoader_Batch_OneRoundTripPerKind(t *testing.T) {
	// Arrange: 3 memory cards and 2 concept cards
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	concepts := mocks.NewMockGateway(entities.KindConcept)

	memoryEntities := map[string]entities.SourceEntity{
		"m1": fixtures.NewMemoryUnit("m1"),
		"m2": fixtures.NewMemoryUnit("m2"),
		"m3": fixtures.NewMemoryUnit("m3"),
	}
	conceptEntities := map[string]entities.SourceEntity{
		"c1": fixtures.NewConcept("c1"),
		"c2": fixtures.NewConcept("c2"),
	}
	memories.On("GetByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 3
	})).Return(memoryEntities, nil).Once()
	concepts.On("GetByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 2
	})).Return(conceptEntities, nil).Once()

	loader := newTestLoader(t, new(mocks.MockCardStore), map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
		entities.KindConcept:    concepts,
	})

	cards := []*entities.Card{
		fixtures.NewCardBuilder().WithID("card-1").WithKind(entities.KindMemoryUnit).WithSourceEntity("m1").Build(),
		fixtures.NewCardBuilder().WithID("card-2").WithKind(entities.KindConcept).WithSourceEntity("c1").Build(),
		fixtures.NewCardBuilder().WithID("card-3").WithKind(entities.KindMemoryUnit).WithSourceEntity("m2").Build(),
		fixtures.NewCardBuilder().WithID("card-4").WithKind(entities.KindConcept).WithSourceEntity("c2").Build(),
		fixtures.NewCardBuilder().WithID("card-5").WithKind(entities.KindMemoryUnit).WithSourceEntity("m3").Build(),
	}

	// Act
	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	// Assert: input order preserved, each Once() expectation proves the
	// single round-trip per kind
	require.NoError(t, err)
	require.Len(t, result, 5)
	assert.Equal(t, "card-1", result[0].ID)
	assert.Equal(t, "Memory m1", result[0].Title)
	assert.Equal(t, "card-2", result[1].ID)
	assert.Equal(t, "Concept c1", result[1].Title)
	assert.Equal(t, "card-3", result[2].ID)
	assert.Equal(t, "card-4", result[3].ID)
	assert.Equal(t, "card-5", result[4].ID)
	assert.Equal(t, "Memory m3", result[4].Title)
	memories.AssertExpectations(t)
	concepts.AssertExpectations(t)
}

func TestCardLoader_Batch_DeduplicatesEntityIDs(t *testing.T) {
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, []string{"m1"}).
		Return(map[string]entities.SourceEntity{"m1": fixtures.NewMemoryUnit("m1")}, nil).Once()

	loader := newTestLoader(t, new(mocks.MockCardStore), map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
	})

	cards := []*entities.Card{
		fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").Build(),
		fixtures.NewCardBuilder().WithID("card-2").WithSourceEntity("m1").Build(),
	}

	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Memory m1", result[0].Title)
	assert.Equal(t, "Memory m1", result[1].Title)
	memories.AssertExpectations(t)
}

func TestCardLoader_Batch_MissingEntityFallsBack(t *testing.T) {
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, mock.Anything).
		Return(map[string]entities.SourceEntity{"m1": fixtures.NewMemoryUnit("m1")}, nil).Once()

	loader := newTestLoader(t, new(mocks.MockCardStore), map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
	})

	cards := []*entities.Card{
		fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").Build(),
		fixtures.NewCardBuilder().WithID("card-2").WithSourceEntity("m-deleted").Build(),
	}

	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Memory m1", result[0].Title)
	assert.Equal(t, entities.FallbackTitle, result[1].Title)
	assert.Equal(t, entities.FallbackContent, result[1].Content)
}

func TestCardLoader_Batch_UnknownKindFallsBack(t *testing.T) {
	loader := newTestLoader(t, new(mocks.MockCardStore), nil)

	cards := []*entities.Card{
		fixtures.NewCardBuilder().WithID("card-1").WithRawSourceKind("hologram").Build(),
	}

	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, entities.FallbackTitle, result[0].Title)
}

func TestCardLoader_Batch_FailedGroupDoesNotAbortOthers(t *testing.T) {
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("throttled")).Once()

	concepts := mocks.NewMockGateway(entities.KindConcept)
	concepts.On("GetByIDs", mock.Anything, mock.Anything).
		Return(map[string]entities.SourceEntity{"c1": fixtures.NewConcept("c1")}, nil).Once()

	loader := newTestLoader(t, new(mocks.MockCardStore), map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
		entities.KindConcept:    concepts,
	})

	cards := []*entities.Card{
		fixtures.NewCardBuilder().WithID("card-1").WithKind(entities.KindMemoryUnit).WithSourceEntity("m1").Build(),
		fixtures.NewCardBuilder().WithID("card-2").WithKind(entities.KindConcept).WithSourceEntity("c1").Build(),
	}

	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, entities.FallbackTitle, result[0].Title, "card in the failed group degrades to fallback")
	assert.Equal(t, "Concept c1", result[1].Title, "healthy group still hydrates")
}

func TestCardLoader_Batch_CustomOverridesWin(t *testing.T) {
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, mock.Anything).
		Return(map[string]entities.SourceEntity{"m1": fixtures.NewMemoryUnit("m1")}, nil).Once()

	loader := newTestLoader(t, new(mocks.MockCardStore), map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
	})

	cards := []*entities.Card{
		fixtures.NewCardBuilder().
			WithID("card-1").
			WithSourceEntity("m1").
			WithCustomTitle("My renamed memory").
			WithCustomContent("").
			Build(),
	}

	result, err := loader.LoadEntityDataBatch(context.Background(), cards)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "My renamed memory", result[0].Title)
	assert.Equal(t, "", result[0].Content, "empty override is deliberate, not a fallback")
}

func TestCardLoader_Batch_EmptyInput(t *testing.T) {
	loader := newTestLoader(t, new(mocks.MockCardStore), nil)

	result, err := loader.LoadEntityDataBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestCardLoader_SetBatchLimits(t *testing.T) {
	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, []string{"m1"}).
		Return(map[string]entities.SourceEntity{"m1": fixtures.NewMemoryUnit("m1")}, nil).Once()

	registry := newTestRegistry(t, map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
	})
	// Window long enough that only the size threshold can dispatch
	loader := NewCardLoader(new(mocks.MockCardStore), registry, time.Minute, 25, nil, zap.NewNop())

	loader.SetBatchLimits(0, 1)

	entity, err := loader.LoadEntityData(context.Background(), "m1", entities.KindMemoryUnit)
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "Memory m1", entity.DisplayTitle())
}

func TestCardLoader_GetCardWithEntityData(t *testing.T) {
	store := new(mocks.MockCardStore)
	card := fixtures.NewCardBuilder().WithID("card-1").WithKind(entities.KindConcept).WithSourceEntity("c1").Build()
	store.On("FindByID", mock.Anything, "card-1").Return(card, nil)

	concepts := mocks.NewMockGateway(entities.KindConcept)
	concepts.On("GetByIDs", mock.Anything, []string{"c1"}).
		Return(map[string]entities.SourceEntity{"c1": fixtures.NewConcept("c1")}, nil).Once()

	loader := newTestLoader(t, store, map[entities.EntityKind]*mocks.MockGateway{
		entities.KindConcept: concepts,
	})

	result, err := loader.GetCardWithEntityData(context.Background(), "card-1")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Concept c1", result.Title)
	assert.Equal(t, "Description of concept c1", result.Content)
}

func TestCardLoader_GetCardWithEntityData_MissingCard(t *testing.T) {
	store := new(mocks.MockCardStore)
	store.On("FindByID", mock.Anything, "ghost").
		Return(nil, appErrors.NewNotFound("card not found"))

	loader := newTestLoader(t, store, nil)

	result, err := loader.GetCardWithEntityData(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCardLoader_GetCardWithEntityData_EntityFailureDegrades(t *testing.T) {
	store := new(mocks.MockCardStore)
	card := fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").Build()
	store.On("FindByID", mock.Anything, "card-1").Return(card, nil)

	memories := mocks.NewMockGateway(entities.KindMemoryUnit)
	memories.On("GetByIDs", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("table offline")).Once()

	loader := newTestLoader(t, store, map[entities.EntityKind]*mocks.MockGateway{
		entities.KindMemoryUnit: memories,
	})

	result, err := loader.GetCardWithEntityData(context.Background(), "card-1")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entities.FallbackTitle, result.Title)
}
