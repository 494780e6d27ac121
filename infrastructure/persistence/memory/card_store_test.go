package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	appErrors "cosmos-backend/pkg/errors"
	"cosmos-backend/tests/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) (*CardStore, *EntityStore) {
	t.Helper()
	entityStore := NewEntityStore()
	return NewCardStore(entityStore), entityStore
}

func TestCardStore_FindByID(t *testing.T) {
	store, _ := seededStore(t)
	card := fixtures.NewCardBuilder().WithID("card-1").Build()
	store.Put(card)

	found, err := store.FindByID(context.Background(), "card-1")
	require.NoError(t, err)
	assert.Equal(t, "card-1", found.ID)

	_, err = store.FindByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCardStore_FindByID_ReturnsCopy(t *testing.T) {
	store, _ := seededStore(t)
	store.Put(fixtures.NewCardBuilder().WithID("card-1").Build())

	found, err := store.FindByID(context.Background(), "card-1")
	require.NoError(t, err)
	found.OwnerID = "mutated"

	again, err := store.FindByID(context.Background(), "card-1")
	require.NoError(t, err)
	assert.Equal(t, "test-user-123", again.OwnerID, "callers must not reach into stored rows")
}

func TestCardStore_FindManyByIDs_SkipsMissing(t *testing.T) {
	store, _ := seededStore(t)
	store.Put(fixtures.NewCardBuilder().WithID("card-1").Build())
	store.Put(fixtures.NewCardBuilder().WithID("card-2").Build())

	found, err := store.FindManyByIDs(context.Background(), []string{"card-1", "ghost", "card-2"})

	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "card-1", found[0].ID)
	assert.Equal(t, "card-2", found[1].ID)
}

func TestCardStore_Search_MatchesEntityText(t *testing.T) {
	store, entityStore := seededStore(t)
	entityStore.Put(&entities.MemoryUnit{ID: "m1", Title: "Camping trip", Content: "We pitched a tent by the lake"})
	entityStore.Put(&entities.MemoryUnit{ID: "m2", Title: "Work review", Content: "Quarterly goals"})
	store.Put(fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").Build())
	store.Put(fixtures.NewCardBuilder().WithID("card-2").WithSourceEntity("m2").Build())

	byTitle, err := store.Search(context.Background(), "test-user-123", "camping", 10)
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "card-1", byTitle[0].ID)

	byContent, err := store.Search(context.Background(), "test-user-123", "LAKE", 10)
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, "card-1", byContent[0].ID)
}

func TestCardStore_Search_CustomTitleShadowsEntity(t *testing.T) {
	store, entityStore := seededStore(t)
	entityStore.Put(&entities.MemoryUnit{ID: "m1", Title: "Original title", Content: ""})
	store.Put(fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").WithCustomTitle("Renamed").Build())

	hits, err := store.Search(context.Background(), "test-user-123", "original", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "the override replaces the entity title for search")

	hits, err = store.Search(context.Background(), "test-user-123", "renamed", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestCardStore_Search_ScopedToOwner(t *testing.T) {
	store, entityStore := seededStore(t)
	entityStore.Put(&entities.MemoryUnit{ID: "m1", Title: "Shared words", Content: ""})
	store.Put(fixtures.NewCardBuilder().WithID("card-1").WithSourceEntity("m1").Build())
	store.Put(fixtures.NewCardBuilder().WithID("card-2").WithSourceEntity("m1").WithOwner("someone-else").Build())

	hits, err := store.Search(context.Background(), "test-user-123", "shared", 10)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "card-1", hits[0].ID)
}

func TestCardStore_List_SortNewest(t *testing.T) {
	store, _ := seededStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		store.Put(fixtures.NewCardBuilder().
			WithID(fmt.Sprintf("card-%d", i)).
			CreatedAt(base.Add(time.Duration(i) * time.Hour)).
			Build())
	}

	page, err := store.List(context.Background(), ports.CardListQuery{
		UserID:    "test-user-123",
		Limit:     10,
		SortField: valueobjects.SortFieldCreatedAt,
		SortOrder: valueobjects.SortOrderDesc,
	})

	require.NoError(t, err)
	require.Len(t, page.Cards, 4)
	assert.Equal(t, "card-3", page.Cards[0].ID)
	assert.Equal(t, "card-0", page.Cards[3].ID)
	assert.Equal(t, 4, page.TotalCount)
	assert.False(t, page.HasMore)
}

func TestCardStore_List_SortByDisplayTitle(t *testing.T) {
	store, entityStore := seededStore(t)
	entityStore.Put(&entities.Concept{ID: "c1", Name: "banana"})
	entityStore.Put(&entities.Concept{ID: "c2", Name: "Apple"})
	store.Put(fixtures.NewCardBuilder().WithID("card-b").WithKind(entities.KindConcept).WithSourceEntity("c1").Build())
	store.Put(fixtures.NewCardBuilder().WithID("card-a").WithKind(entities.KindConcept).WithSourceEntity("c2").Build())
	// No entity: sorts under the fallback title
	store.Put(fixtures.NewCardBuilder().WithID("card-u").WithKind(entities.KindConcept).WithSourceEntity("gone").Build())

	page, err := store.List(context.Background(), ports.CardListQuery{
		UserID:    "test-user-123",
		Limit:     10,
		SortField: valueobjects.SortFieldTitle,
		SortOrder: valueobjects.SortOrderAsc,
	})

	require.NoError(t, err)
	require.Len(t, page.Cards, 3)
	assert.Equal(t, "card-a", page.Cards[0].ID, "title compare is case-insensitive")
	assert.Equal(t, "card-b", page.Cards[1].ID)
	assert.Equal(t, "card-u", page.Cards[2].ID)
}

func TestCardStore_List_Pagination(t *testing.T) {
	store, _ := seededStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.Put(fixtures.NewCardBuilder().
			WithID(fmt.Sprintf("card-%d", i)).
			CreatedAt(base.Add(time.Duration(i) * time.Hour)).
			Build())
	}

	query := ports.CardListQuery{
		UserID:    "test-user-123",
		Limit:     2,
		SortField: valueobjects.SortFieldCreatedAt,
		SortOrder: valueobjects.SortOrderAsc,
	}

	first, err := store.List(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, first.Cards, 2)
	assert.True(t, first.HasMore)

	query.Offset = 4
	last, err := store.List(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, last.Cards, 1)
	assert.Equal(t, "card-4", last.Cards[0].ID)
	assert.False(t, last.HasMore)

	query.Offset = 10
	past, err := store.List(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, past.Cards)
	assert.Equal(t, 5, past.TotalCount)
	assert.False(t, past.HasMore)
}

func TestCardStore_List_CoverFirstKeepsSortWithinGroups(t *testing.T) {
	store, _ := seededStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.Put(fixtures.NewCardBuilder().WithID("plain-new").CreatedAt(base.Add(3 * time.Hour)).Build())
	store.Put(fixtures.NewCardBuilder().WithID("cover-old").CreatedAt(base).WithCover("https://img/a.png").Build())
	store.Put(fixtures.NewCardBuilder().WithID("cover-new").CreatedAt(base.Add(2 * time.Hour)).WithCover("https://img/b.png").Build())
	store.Put(fixtures.NewCardBuilder().WithID("plain-old").CreatedAt(base.Add(time.Hour)).Build())

	page, err := store.List(context.Background(), ports.CardListQuery{
		UserID:     "test-user-123",
		Limit:      10,
		SortField:  valueobjects.SortFieldCreatedAt,
		SortOrder:  valueobjects.SortOrderDesc,
		CoverFirst: true,
	})

	require.NoError(t, err)
	require.Len(t, page.Cards, 4)
	assert.Equal(t, "cover-new", page.Cards[0].ID)
	assert.Equal(t, "cover-old", page.Cards[1].ID)
	assert.Equal(t, "plain-new", page.Cards[2].ID)
	assert.Equal(t, "plain-old", page.Cards[3].ID)
}

func TestCardStore_List_FavoritedOnly(t *testing.T) {
	store, _ := seededStore(t)
	store.Put(fixtures.NewCardBuilder().WithID("card-1").Favorited().Build())
	store.Put(fixtures.NewCardBuilder().WithID("card-2").Build())

	page, err := store.List(context.Background(), ports.CardListQuery{
		UserID:        "test-user-123",
		Limit:         10,
		FavoritedOnly: true,
	})

	require.NoError(t, err)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "card-1", page.Cards[0].ID)
	assert.Equal(t, 1, page.TotalCount)
}

func TestCardStore_List_CancelledContext(t *testing.T) {
	store, _ := seededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx, ports.CardListQuery{UserID: "test-user-123"})

	assert.Error(t, err)
}

func TestEntityStore_Gateways_CoverEveryKind(t *testing.T) {
	entityStore := NewEntityStore()

	registry, err := ports.NewGatewayRegistry(Gateways(entityStore)...)

	require.NoError(t, err)
	for _, kind := range entities.AllEntityKinds() {
		gw, ok := registry.ForKind(kind)
		require.True(t, ok, "missing gateway for %s", kind)
		assert.Equal(t, kind, gw.Kind())
	}
}

func TestEntityStore_GatewayLookups(t *testing.T) {
	entityStore := NewEntityStore()
	entityStore.Put(&entities.Concept{ID: "c1", Name: "Patience"})
	gateways := Gateways(entityStore)

	var concepts ports.SourceEntityGateway
	for _, gw := range gateways {
		if gw.Kind() == entities.KindConcept {
			concepts = gw
		}
	}
	require.NotNil(t, concepts)

	entity, err := concepts.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Patience", entity.DisplayTitle())

	_, err = concepts.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))

	found, err := concepts.GetByIDs(context.Background(), []string{"c1", "ghost"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found, "c1")
}
