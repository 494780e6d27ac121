package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	pkgerrors "cosmos-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const batchGetChunkSize = 100

// CardStore implements ports.CardStore on the single-table DynamoDB layout.
// Card items live under PK "CARD#<id>" with a user GSI for owner-scoped
// listing. This layer only reads cards; writes belong to the ingestion and
// growth pipelines.
type CardStore struct {
	client    *dynamodb.Client
	tableName string
	userIndex string
	logger    *zap.Logger
}

var _ ports.CardStore = (*CardStore)(nil)

// NewCardStore creates a DynamoDB-backed card store
func NewCardStore(client *dynamodb.Client, tableName, userIndex string, logger *zap.Logger) *CardStore {
	return &CardStore{
		client:    client,
		tableName: tableName,
		userIndex: userIndex,
		logger:    logger,
	}
}

// cardItem represents the DynamoDB item structure for a card
type cardItem struct {
	PK                 string  `dynamodbav:"PK"`
	SK                 string  `dynamodbav:"SK"`
	GSI1PK             string  `dynamodbav:"GSI1PK"`
	GSI1SK             string  `dynamodbav:"GSI1SK"`
	CardID             string  `dynamodbav:"CardID"`
	OwnerID            string  `dynamodbav:"OwnerID"`
	CardType           string  `dynamodbav:"CardType"`
	SourceEntityID     string  `dynamodbav:"SourceEntityID"`
	SourceEntityKind   string  `dynamodbav:"SourceEntityKind"`
	Status             string  `dynamodbav:"Status"`
	IsFavorited        bool    `dynamodbav:"IsFavorited"`
	BackgroundImageURL string  `dynamodbav:"BackgroundImageURL,omitempty"`
	CustomTitle        *string `dynamodbav:"CustomTitle,omitempty"`
	CustomContent      *string `dynamodbav:"CustomContent,omitempty"`
	DisplayOrder       int     `dynamodbav:"DisplayOrder"`
	// SearchText is the lowercased display text, denormalized at write
	// time by the card writer so search does not need a per-card join.
	SearchText string `dynamodbav:"SearchText,omitempty"`
	// SortTitle is the lowercased display title, denormalized for title
	// ordering.
	SortTitle string `dynamodbav:"SortTitle,omitempty"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

func cardPK(id string) string { return fmt.Sprintf("CARD#%s", id) }

// FindByID retrieves a card by its ID
func (s *CardStore) FindByID(ctx context.Context, id string) (*entities.Card, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: cardPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewTransport("get card item", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFound("card not found: " + id)
	}

	var item cardItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewInternal("unmarshal card item", err)
	}
	return item.toCard()
}

// FindManyByIDs retrieves the cards that exist among the given IDs using
// BatchGetItem, re-queueing unprocessed keys until the batch drains
func (s *CardStore) FindManyByIDs(ctx context.Context, ids []string) ([]*entities.Card, error) {
	out := make([]*entities.Card, 0, len(ids))

	for start := 0; start < len(ids); start += batchGetChunkSize {
		end := start + batchGetChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: cardPK(id)},
				"SK": &types.AttributeValueMemberS{Value: "METADATA"},
			})
		}

		for len(keys) > 0 {
			result, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					s.tableName: {Keys: keys},
				},
			})
			if err != nil {
				return nil, pkgerrors.NewTransport("batch get cards", err)
			}

			for _, raw := range result.Responses[s.tableName] {
				var item cardItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					s.logger.Warn("skipping unreadable card item", zap.Error(err))
					continue
				}
				card, err := item.toCard()
				if err != nil {
					s.logger.Warn("skipping malformed card item",
						zap.String("cardID", item.CardID),
						zap.Error(err),
					)
					continue
				}
				out = append(out, card)
			}

			keys = result.UnprocessedKeys[s.tableName].Keys
		}
	}
	return out, nil
}

// Search finds a user's cards whose denormalized search text contains the
// query, case-insensitively
func (s *CardStore) Search(ctx context.Context, userID, query string, limit int) ([]*entities.Card, error) {
	if limit <= 0 {
		limit = 10
	}

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(userPK(userID)))
	filter := expression.Contains(expression.Name("SearchText"), strings.ToLower(query))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("build search expression", err)
	}

	out := make([]*entities.Card, 0, limit)
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(s.userIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewTransport("query cards", err)
		}

		for _, raw := range result.Items {
			var item cardItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			card, err := item.toCard()
			if err != nil {
				continue
			}
			out = append(out, card)
			if len(out) == limit {
				return out, nil
			}
		}

		startKey = result.LastEvaluatedKey
		if startKey == nil {
			return out, nil
		}
	}
}

// List returns one sorted page of a user's cards. The user partition is
// read in full and sorted in memory: per-user card counts are gallery
// sized, and offset pagination over a secondary sort cannot be pushed down
// to a single DynamoDB key order.
func (s *CardStore) List(ctx context.Context, query ports.CardListQuery) (*ports.CardListPage, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(userPK(query.UserID)))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if query.FavoritedOnly {
		builder = builder.WithFilter(expression.Equal(expression.Name("IsFavorited"), expression.Value(true)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("build list expression", err)
	}

	var items []cardItem
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(s.userIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewTransport("query card partition", err)
		}

		for _, raw := range result.Items {
			var item cardItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("skipping unreadable card item", zap.Error(err))
				continue
			}
			items = append(items, item)
		}

		startKey = result.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}

	sortItems(items, query.SortField, query.SortOrder)
	if query.CoverFirst {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].BackgroundImageURL != "" && items[j].BackgroundImageURL == ""
		})
	}

	total := len(items)
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	cards := make([]*entities.Card, 0, limit)
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		for _, item := range items[offset:end] {
			card, err := item.toCard()
			if err != nil {
				s.logger.Warn("skipping malformed card item",
					zap.String("cardID", item.CardID),
					zap.Error(err),
				)
				continue
			}
			cards = append(cards, card)
		}
	}

	return &ports.CardListPage{
		Cards:      cards,
		TotalCount: total,
		HasMore:    offset+len(cards) < total,
	}, nil
}

func sortItems(items []cardItem, field valueobjects.SortField, order valueobjects.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var ka, kb string
		switch field {
		case valueobjects.SortFieldTitle:
			ka, kb = a.SortTitle, b.SortTitle
		default:
			ka, kb = a.CreatedAt, b.CreatedAt
		}
		if ka == kb {
			return a.CardID < b.CardID
		}
		if order == valueobjects.SortOrderDesc {
			return ka > kb
		}
		return ka < kb
	})
}

func userPK(userID string) string { return fmt.Sprintf("USER#%s", userID) }

// toCard converts a stored item back to the domain card
func (item cardItem) toCard() (*entities.Card, error) {
	kind, err := entities.ParseEntityKind(item.SourceEntityKind)
	if err != nil {
		return nil, err
	}
	cardType, err := entities.ParseEntityKind(item.CardType)
	if err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse CreatedAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse UpdatedAt: %w", err)
	}

	return &entities.Card{
		ID:                 item.CardID,
		OwnerID:            item.OwnerID,
		Type:               cardType,
		SourceEntityID:     item.SourceEntityID,
		SourceEntityKind:   kind,
		Status:             entities.CardStatus(item.Status),
		IsFavorited:        item.IsFavorited,
		BackgroundImageURL: item.BackgroundImageURL,
		CustomTitle:        item.CustomTitle,
		CustomContent:      item.CustomContent,
		DisplayOrder:       item.DisplayOrder,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}, nil
}
