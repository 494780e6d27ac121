package resolution

import (
	"context"
	"strings"
	"time"

	"cosmos-backend/application/loaders"
	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	"cosmos-backend/pkg/errors"
	"cosmos-backend/pkg/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Confidence assigned by each matching strategy
const (
	confidenceDirectID = 1.0
	confidenceTitle    = 0.8
	confidenceContent  = 0.6
)

const (
	defaultSearchLimit = 10
	relatedCardLimit   = 5

	// Content matching builds its search query from the first few
	// meaningful tokens (length > 3) of the node's content.
	contentQueryTokens = 3
	contentMinTokenLen = 4
)

// Resolver maps opaque graph-node references onto canonical card
// identities. Strategies run in strict order - direct ID, title hint,
// content hint - until one yields a match, which is cached. Concurrent
// resolutions of the same node collapse onto one underlying chain.
type Resolver struct {
	cards       ports.CardStore
	loader      *loaders.CardLoader
	cache       *Cache
	searchLimit int
	group       singleflight.Group
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NodeCardData is a node's full display payload
type NodeCardData struct {
	Card         *entities.CardData
	RelatedCards []*entities.CardData
	Connections  []valueobjects.NodeConnection
}

// NewResolver creates a resolver
func NewResolver(
	cards ports.CardStore,
	loader *loaders.CardLoader,
	cache *Cache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		cards:       cards,
		loader:      loader,
		cache:       cache,
		searchLimit: defaultSearchLimit,
		metrics:     metrics,
		logger:      logger,
	}
}

// MapNodeToCard resolves a node reference to a card mapping. A node
// without an ID, and a node no strategy can match, both return (nil, nil);
// unresolved nodes are not cached so a retry with richer hints can still
// succeed.
func (r *Resolver) MapNodeToCard(ctx context.Context, node valueobjects.NodeReference) (*valueobjects.NodeCardMapping, error) {
	if node.ID == "" {
		return nil, nil
	}

	if mapping, ok := r.cache.Get(node.ID); ok {
		r.metrics.RecordCacheLookup(ctx, true)
		return &mapping, nil
	}
	r.metrics.RecordCacheLookup(ctx, false)

	v, err, _ := r.group.Do(node.ID, func() (interface{}, error) {
		// A concurrent caller may have resolved this node while we
		// waited on the flight group.
		if mapping, ok := r.cache.Get(node.ID); ok {
			return &mapping, nil
		}
		return r.resolveUncached(ctx, node), nil
	})
	if err != nil {
		return nil, err
	}

	mapping, _ := v.(*valueobjects.NodeCardMapping)
	return mapping, nil
}

// resolveUncached runs the strategy chain and caches a successful match
func (r *Resolver) resolveUncached(ctx context.Context, node valueobjects.NodeReference) *valueobjects.NodeCardMapping {
	start := time.Now()

	type strategy struct {
		name string
		run  func(context.Context, valueobjects.NodeReference) *valueobjects.NodeCardMapping
	}
	chain := []strategy{
		{"direct_id", r.matchDirectID},
		{"title", r.matchTitle},
		{"content", r.matchContent},
	}

	for _, s := range chain {
		mapping := s.run(ctx, node)
		if mapping == nil {
			continue
		}

		r.cache.Set(node.ID, *mapping)
		r.metrics.RecordResolution(ctx, s.name, mapping.Confidence, time.Since(start))
		r.logger.Debug("node resolved to card",
			zap.String("nodeID", node.ID),
			zap.String("cardID", mapping.CardID),
			zap.String("strategy", s.name),
			zap.Float64("confidence", mapping.Confidence),
		)
		return mapping
	}

	r.metrics.RecordResolution(ctx, "unresolved", 0, time.Since(start))
	r.logger.Debug("node did not resolve to any card", zap.String("nodeID", node.ID))
	return nil
}

// matchDirectID treats the node ID as a card ID
func (r *Resolver) matchDirectID(ctx context.Context, node valueobjects.NodeReference) *valueobjects.NodeCardMapping {
	card, err := r.cards.FindByID(ctx, node.ID)
	if err != nil {
		if !errors.IsNotFound(err) {
			r.strategyFailed("direct_id", node.ID, err)
		}
		return nil
	}
	return r.mapping(node.ID, card, confidenceDirectID)
}

// matchTitle searches for the node's title hint and prefers an exact
// case-insensitive title match, then a substring match in either direction.
func (r *Resolver) matchTitle(ctx context.Context, node valueobjects.NodeReference) *valueobjects.NodeCardMapping {
	if node.Title == "" {
		return nil
	}

	candidates := r.searchHydrated(ctx, "title", node, node.Title)
	if len(candidates) == 0 {
		return nil
	}

	nodeTitle := strings.ToLower(node.Title)
	for _, c := range candidates {
		if strings.EqualFold(c.Title, node.Title) {
			return r.mapping(node.ID, &c.Card, confidenceTitle)
		}
	}
	for _, c := range candidates {
		cardTitle := strings.ToLower(c.Title)
		if strings.Contains(cardTitle, nodeTitle) || strings.Contains(nodeTitle, cardTitle) {
			return r.mapping(node.ID, &c.Card, confidenceTitle)
		}
	}
	return nil
}

// matchContent builds a query from the node's content and prefers a
// candidate whose content or title contains the node's content.
func (r *Resolver) matchContent(ctx context.Context, node valueobjects.NodeReference) *valueobjects.NodeCardMapping {
	query := contentQuery(node.Content)
	if query == "" {
		return nil
	}

	candidates := r.searchHydrated(ctx, "content", node, query)
	if len(candidates) == 0 {
		return nil
	}

	nodeContent := strings.ToLower(node.Content)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Content), nodeContent) ||
			strings.Contains(strings.ToLower(c.Title), nodeContent) {
			return r.mapping(node.ID, &c.Card, confidenceContent)
		}
	}
	return nil
}

// searchHydrated queries the card search collaborator and hydrates the
// candidates so strategies can match against display titles and content.
// Collaborator failures are downgraded to "no candidates" so the chain can
// continue.
func (r *Resolver) searchHydrated(ctx context.Context, strategyName string, node valueobjects.NodeReference, query string) []*entities.CardData {
	cards, err := r.cards.Search(ctx, node.OwnerID, query, r.searchLimit)
	if err != nil {
		r.strategyFailed(strategyName, node.ID, err)
		return nil
	}
	if len(cards) == 0 {
		return nil
	}

	hydrated, err := r.loader.LoadEntityDataBatch(ctx, cards)
	if err != nil {
		r.strategyFailed(strategyName, node.ID, err)
		return nil
	}
	return hydrated
}

func (r *Resolver) strategyFailed(strategyName, nodeID string, err error) {
	r.logger.Warn("resolution strategy failed, continuing chain",
		zap.String("strategy", strategyName),
		zap.String("nodeID", nodeID),
		zap.Error(err),
	)
}

func (r *Resolver) mapping(nodeID string, card *entities.Card, confidence float64) *valueobjects.NodeCardMapping {
	return &valueobjects.NodeCardMapping{
		NodeID:     nodeID,
		CardID:     card.ID,
		CardType:   card.Type,
		Confidence: confidence,
	}
}

// GetNodeCardData assembles a node's full display payload: the resolved
// card, a bounded set of related cards, and the connections carried in the
// node payload. An unresolved node yields an empty payload, never an
// error; only a failure to hydrate an already-resolved card propagates.
func (r *Resolver) GetNodeCardData(ctx context.Context, node valueobjects.NodeReference) (*NodeCardData, error) {
	payload := &NodeCardData{
		RelatedCards: []*entities.CardData{},
		Connections:  node.AllConnections(),
	}

	mapping, err := r.MapNodeToCard(ctx, node)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return payload, nil
	}

	card, err := r.loader.GetCardWithEntityData(ctx, mapping.CardID)
	if err != nil {
		return nil, errors.Wrap(err, "hydrate resolved card")
	}
	if card == nil {
		// The mapping outlived the card; treat as unresolved.
		return payload, nil
	}

	payload.Card = card
	payload.RelatedCards = r.relatedCards(ctx, card)
	return payload, nil
}

// relatedCards returns up to relatedCardLimit recent cards of the same
// kind and owner. Failures degrade to an empty set.
func (r *Resolver) relatedCards(ctx context.Context, card *entities.CardData) []*entities.CardData {
	page, err := r.cards.List(ctx, ports.CardListQuery{
		UserID:    card.OwnerID,
		Limit:     relatedCardLimit + 1,
		SortField: valueobjects.SortFieldCreatedAt,
		SortOrder: valueobjects.SortOrderDesc,
	})
	if err != nil {
		r.logger.Warn("related card lookup failed",
			zap.String("cardID", card.ID),
			zap.Error(err),
		)
		return []*entities.CardData{}
	}

	siblings := make([]*entities.Card, 0, relatedCardLimit)
	for _, c := range page.Cards {
		if c.ID == card.ID {
			continue
		}
		siblings = append(siblings, c)
		if len(siblings) == relatedCardLimit {
			break
		}
	}
	if len(siblings) == 0 {
		return []*entities.CardData{}
	}

	hydrated, err := r.loader.LoadEntityDataBatch(ctx, siblings)
	if err != nil {
		r.logger.Warn("related card hydration failed",
			zap.String("cardID", card.ID),
			zap.Error(err),
		)
		return []*entities.CardData{}
	}
	return hydrated
}

// ClearCache drops all cached node mappings, e.g. on logout or user switch
func (r *Resolver) ClearCache() {
	r.cache.Clear()
}

// contentQuery takes the first meaningful tokens of the node's content as
// a search query
func contentQuery(content string) string {
	if content == "" {
		return ""
	}

	var tokens []string
	for _, tok := range strings.Fields(content) {
		if len(tok) >= contentMinTokenLen {
			tokens = append(tokens, tok)
		}
		if len(tokens) == contentQueryTokens {
			break
		}
	}
	return strings.Join(tokens, " ")
}
