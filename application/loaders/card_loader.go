package loaders

import (
	"context"
	"sync"
	"time"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/pkg/errors"
	"cosmos-backend/pkg/observability"
	"go.uber.org/zap"
)

// CardLoader hydrates card rows into CardData by joining each card against
// the source-entity table its kind points at. Batch loads issue exactly one
// gateway round-trip per distinct entity kind present in the input, never
// one per card.
type CardLoader struct {
	cards    ports.CardStore
	registry *ports.GatewayRegistry
	batchers map[entities.EntityKind]*Batcher[string, entities.SourceEntity]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCardLoader creates a card loader. Single-entity loads are coalesced
// through a per-kind batcher with the given window and size.
func NewCardLoader(
	cards ports.CardStore,
	registry *ports.GatewayRegistry,
	batchWindow time.Duration,
	maxBatch int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CardLoader {
	batchers := make(map[entities.EntityKind]*Batcher[string, entities.SourceEntity])
	for _, kind := range entities.AllEntityKinds() {
		gw, ok := registry.ForKind(kind)
		if !ok {
			continue
		}
		batchers[kind] = NewBatcher(
			func(ctx context.Context, ids []string) (map[string]entities.SourceEntity, error) {
				return gw.GetByIDs(ctx, ids)
			},
			batchWindow,
			maxBatch,
			logger,
		)
	}

	return &CardLoader{
		cards:    cards,
		registry: registry,
		batchers: batchers,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetBatchLimits adjusts the coalescing window and batch size of every
// per-kind batcher, for runtime tuning via dynamic config
func (l *CardLoader) SetBatchLimits(batchWindow time.Duration, maxBatch int) {
	for _, batcher := range l.batchers {
		batcher.SetLimits(batchWindow, maxBatch)
	}
}

// LoadEntityDataBatch hydrates a mixed batch of cards. Cards are grouped by
// entity kind and each group is fetched with a single gateway call; groups
// are fetched concurrently since there is no ordering dependency between
// them. The result preserves the input card order. A missing entity, an
// unknown kind, or a failed group degrades that card to the
// "Untitled"/empty fallback instead of failing the batch.
func (l *CardLoader) LoadEntityDataBatch(ctx context.Context, cards []*entities.Card) ([]*entities.CardData, error) {
	groups := make(map[entities.EntityKind][]string)
	for _, card := range cards {
		kind := card.SourceEntityKind
		if !kind.Valid() {
			l.logger.Warn("card references unknown entity kind",
				zap.String("cardID", card.ID),
				zap.String("kind", string(kind)),
			)
			continue
		}
		groups[kind] = append(groups[kind], card.SourceEntityID)
	}

	var mu sync.Mutex
	lookup := make(map[entities.EntityKind]map[string]entities.SourceEntity, len(groups))

	var wg sync.WaitGroup
	for kind, ids := range groups {
		gw, ok := l.registry.ForKind(kind)
		if !ok {
			l.logger.Warn("no gateway for entity kind, skipping group",
				zap.String("kind", kind.String()),
				zap.Int("cards", len(ids)),
			)
			continue
		}

		wg.Add(1)
		go func(kind entities.EntityKind, gw ports.SourceEntityGateway, ids []string) {
			defer wg.Done()

			start := time.Now()
			found, err := gw.GetByIDs(ctx, dedupe(ids))
			l.metrics.RecordEntityBatch(ctx, kind.String(), len(ids), time.Since(start), err)
			if err != nil {
				// One failed group must not abort the others; its cards
				// fall back to the untitled projection.
				l.logger.Warn("entity batch fetch failed",
					zap.String("kind", kind.String()),
					zap.Int("ids", len(ids)),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			lookup[kind] = found
			mu.Unlock()
		}(kind, gw, ids)
	}
	wg.Wait()

	out := make([]*entities.CardData, 0, len(cards))
	for _, card := range cards {
		var entity entities.SourceEntity
		if byID, ok := lookup[card.SourceEntityKind]; ok {
			entity = byID[card.SourceEntityID]
		}
		out = append(out, card.WithEntity(entity))
	}
	return out, nil
}

// LoadEntityData fetches a single source entity, coalescing with other
// concurrent loads of the same kind. A missing entity returns (nil, nil)
// so detail views can fall back instead of erroring.
func (l *CardLoader) LoadEntityData(ctx context.Context, id string, kind entities.EntityKind) (entities.SourceEntity, error) {
	batcher, ok := l.batchers[kind]
	if !ok {
		l.logger.Warn("no gateway for entity kind", zap.String("kind", string(kind)))
		return nil, nil
	}

	entity, err := batcher.Load(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load source entity")
	}
	return entity, nil
}

// GetCardWithEntityData fetches a card and hydrates it against its source
// entity. A missing card returns (nil, nil); a missing or unreachable
// entity degrades to the fallback projection.
func (l *CardLoader) GetCardWithEntityData(ctx context.Context, cardID string) (*entities.CardData, error) {
	card, err := l.cards.FindByID(ctx, cardID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load card")
	}

	entity, err := l.LoadEntityData(ctx, card.SourceEntityID, card.SourceEntityKind)
	if err != nil {
		l.logger.Warn("entity load failed, using fallback projection",
			zap.String("cardID", card.ID),
			zap.Error(err),
		)
		entity = nil
	}
	return card.WithEntity(entity), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
