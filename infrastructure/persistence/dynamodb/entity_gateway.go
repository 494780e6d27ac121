package dynamodb

import (
	"context"
	"fmt"
	"time"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	pkgerrors "cosmos-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// EntityGateway reads one kind's source-entity items. Every kind shares
// the item layout below; kind-specific attributes are simply absent for
// the kinds that don't carry them.
type EntityGateway struct {
	client    *dynamodb.Client
	tableName string
	kind      entities.EntityKind
	logger    *zap.Logger
}

var _ ports.SourceEntityGateway = (*EntityGateway)(nil)

// NewEntityGateway creates a gateway for one entity kind
func NewEntityGateway(client *dynamodb.Client, tableName string, kind entities.EntityKind, logger *zap.Logger) *EntityGateway {
	return &EntityGateway{
		client:    client,
		tableName: tableName,
		kind:      kind,
		logger:    logger,
	}
}

// Gateways returns one gateway per known entity kind
func Gateways(client *dynamodb.Client, tableName string, logger *zap.Logger) []ports.SourceEntityGateway {
	kinds := entities.AllEntityKinds()
	out := make([]ports.SourceEntityGateway, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, NewEntityGateway(client, tableName, kind, logger))
	}
	return out
}

// entityItem represents the DynamoDB item structure for a source entity
type entityItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	EntityID string `dynamodbav:"EntityID"`
	Kind     string `dynamodbav:"Kind"`
	Title    string `dynamodbav:"Title,omitempty"`
	Content  string `dynamodbav:"Content,omitempty"`

	// Kind-specific attributes
	ImportanceScore float64 `dynamodbav:"ImportanceScore,omitempty"`
	ConceptType     string  `dynamodbav:"ConceptType,omitempty"`
	Salience        float64 `dynamodbav:"Salience,omitempty"`
	ArtifactType    string  `dynamodbav:"ArtifactType,omitempty"`
	PromptType      string  `dynamodbav:"PromptType,omitempty"`
	PromptStatus    string  `dynamodbav:"PromptStatus,omitempty"`
	MemberCount     int     `dynamodbav:"MemberCount,omitempty"`
	DimensionKey    string  `dynamodbav:"DimensionKey,omitempty"`
	Delta           float64 `dynamodbav:"Delta,omitempty"`
	EventSource     string  `dynamodbav:"EventSource,omitempty"`
	OccurredAt      string  `dynamodbav:"OccurredAt,omitempty"`
}

func (g *EntityGateway) entityPK(id string) string {
	return fmt.Sprintf("ENTITY#%s#%s", g.kind, id)
}

// Kind identifies which entity table this gateway reads
func (g *EntityGateway) Kind() entities.EntityKind {
	return g.kind
}

// GetByID retrieves one entity
func (g *EntityGateway) GetByID(ctx context.Context, id string) (entities.SourceEntity, error) {
	result, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(g.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: g.entityPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewTransport("get entity item", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("%s not found: %s", g.kind, id))
	}

	var item entityItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewInternal("unmarshal entity item", err)
	}
	return item.toEntity(g.kind)
}

// GetByIDs retrieves the entities that exist among the given IDs, keyed by
// entity ID
func (g *EntityGateway) GetByIDs(ctx context.Context, ids []string) (map[string]entities.SourceEntity, error) {
	out := make(map[string]entities.SourceEntity, len(ids))

	for start := 0; start < len(ids); start += batchGetChunkSize {
		end := start + batchGetChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: g.entityPK(id)},
				"SK": &types.AttributeValueMemberS{Value: "METADATA"},
			})
		}

		for len(keys) > 0 {
			result, err := g.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					g.tableName: {Keys: keys},
				},
			})
			if err != nil {
				return nil, pkgerrors.NewTransport("batch get entities", err)
			}

			for _, raw := range result.Responses[g.tableName] {
				var item entityItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					g.logger.Warn("skipping unreadable entity item",
						zap.String("kind", g.kind.String()),
						zap.Error(err),
					)
					continue
				}
				entity, err := item.toEntity(g.kind)
				if err != nil {
					g.logger.Warn("skipping malformed entity item",
						zap.String("kind", g.kind.String()),
						zap.String("entityID", item.EntityID),
						zap.Error(err),
					)
					continue
				}
				out[entity.EntityID()] = entity
			}

			keys = result.UnprocessedKeys[g.tableName].Keys
		}
	}
	return out, nil
}

// toEntity builds the concrete variant for the given kind. The switch is
// exhaustive over AllEntityKinds; an unhandled kind is an error, not a
// silent fallthrough.
func (item entityItem) toEntity(kind entities.EntityKind) (entities.SourceEntity, error) {
	switch kind {
	case entities.KindMemoryUnit:
		return &entities.MemoryUnit{
			ID:              item.EntityID,
			Title:           item.Title,
			Content:         item.Content,
			ImportanceScore: item.ImportanceScore,
			IngestedAt:      parseTimeOrZero(item.OccurredAt),
		}, nil
	case entities.KindConcept:
		return &entities.Concept{
			ID:          item.EntityID,
			Name:        item.Title,
			Description: item.Content,
			ConceptType: item.ConceptType,
			Salience:    item.Salience,
		}, nil
	case entities.KindDerivedArtifact:
		return &entities.DerivedArtifact{
			ID:           item.EntityID,
			Title:        item.Title,
			ContentBody:  item.Content,
			ArtifactType: item.ArtifactType,
		}, nil
	case entities.KindProactivePrompt:
		return &entities.ProactivePrompt{
			ID:         item.EntityID,
			Title:      item.Title,
			PromptText: item.Content,
			PromptType: item.PromptType,
			Status:     item.PromptStatus,
		}, nil
	case entities.KindCommunity:
		return &entities.Community{
			ID:          item.EntityID,
			Name:        item.Title,
			Description: item.Content,
			MemberCount: item.MemberCount,
		}, nil
	case entities.KindGrowthEvent:
		return &entities.GrowthEvent{
			ID:           item.EntityID,
			DimensionKey: item.DimensionKey,
			Rationale:    item.Content,
			Delta:        item.Delta,
			Source:       item.EventSource,
			OccurredAt:   parseTimeOrZero(item.OccurredAt),
		}, nil
	case entities.KindUser:
		return &entities.User{
			ID:          item.EntityID,
			DisplayName: item.Title,
			Bio:         item.Content,
		}, nil
	default:
		return nil, fmt.Errorf("unhandled entity kind: %s", kind)
	}
}

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
