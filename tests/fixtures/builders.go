// Package fixtures provides builders for test data with sensible defaults.
package fixtures

import (
	"fmt"
	"time"

	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	"github.com/google/uuid"
)

// CardBuilder helps create test cards with default values
type CardBuilder struct {
	card entities.Card
}

func NewCardBuilder() *CardBuilder {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &CardBuilder{
		card: entities.Card{
			ID:               uuid.NewString(),
			OwnerID:          "test-user-123",
			Type:             entities.KindMemoryUnit,
			SourceEntityID:   uuid.NewString(),
			SourceEntityKind: entities.KindMemoryUnit,
			Status:           entities.CardStatusActiveCanvas,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
}

func (b *CardBuilder) WithID(id string) *CardBuilder {
	b.card.ID = id
	return b
}

func (b *CardBuilder) WithOwner(ownerID string) *CardBuilder {
	b.card.OwnerID = ownerID
	return b
}

func (b *CardBuilder) WithKind(kind entities.EntityKind) *CardBuilder {
	b.card.Type = kind
	b.card.SourceEntityKind = kind
	return b
}

// WithRawSourceKind sets the source kind without validation, for exercising
// unknown-kind handling
func (b *CardBuilder) WithRawSourceKind(kind string) *CardBuilder {
	b.card.SourceEntityKind = entities.EntityKind(kind)
	return b
}

func (b *CardBuilder) WithSourceEntity(entityID string) *CardBuilder {
	b.card.SourceEntityID = entityID
	return b
}

func (b *CardBuilder) WithStatus(status entities.CardStatus) *CardBuilder {
	b.card.Status = status
	return b
}

func (b *CardBuilder) Favorited() *CardBuilder {
	b.card.IsFavorited = true
	return b
}

func (b *CardBuilder) WithCover(url string) *CardBuilder {
	b.card.BackgroundImageURL = url
	return b
}

func (b *CardBuilder) WithCustomTitle(title string) *CardBuilder {
	b.card.CustomTitle = &title
	return b
}

func (b *CardBuilder) WithCustomContent(content string) *CardBuilder {
	b.card.CustomContent = &content
	return b
}

func (b *CardBuilder) WithDisplayOrder(order int) *CardBuilder {
	b.card.DisplayOrder = order
	return b
}

func (b *CardBuilder) CreatedAt(ts time.Time) *CardBuilder {
	b.card.CreatedAt = ts
	b.card.UpdatedAt = ts
	return b
}

func (b *CardBuilder) Build() *entities.Card {
	card := b.card
	return &card
}

// Entity constructors with defaults keyed off the entity ID, so a test can
// tell hydrated cards apart without naming every field.

func NewMemoryUnit(id string) *entities.MemoryUnit {
	return &entities.MemoryUnit{
		ID:         id,
		Title:      fmt.Sprintf("Memory %s", id),
		Content:    fmt.Sprintf("Content of memory %s", id),
		IngestedAt: time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
	}
}

func NewConcept(id string) *entities.Concept {
	return &entities.Concept{
		ID:          id,
		Name:        fmt.Sprintf("Concept %s", id),
		Description: fmt.Sprintf("Description of concept %s", id),
		ConceptType: "theme",
		Salience:    0.5,
	}
}

func NewDerivedArtifact(id string) *entities.DerivedArtifact {
	return &entities.DerivedArtifact{
		ID:           id,
		Title:        fmt.Sprintf("Artifact %s", id),
		ContentBody:  fmt.Sprintf("Body of artifact %s", id),
		ArtifactType: "insight",
	}
}

func NewProactivePrompt(id string) *entities.ProactivePrompt {
	return &entities.ProactivePrompt{
		ID:         id,
		Title:      fmt.Sprintf("Prompt %s", id),
		PromptText: fmt.Sprintf("Prompt text %s", id),
		PromptType: "reflection",
		Status:     "pending",
	}
}

func NewCommunity(id string) *entities.Community {
	return &entities.Community{
		ID:          id,
		Name:        fmt.Sprintf("Community %s", id),
		Description: fmt.Sprintf("Description of community %s", id),
		MemberCount: 3,
	}
}

func NewGrowthEvent(id string) *entities.GrowthEvent {
	return &entities.GrowthEvent{
		ID:           id,
		DimensionKey: "self_knowledge",
		Rationale:    fmt.Sprintf("Rationale %s", id),
		Delta:        0.1,
		Source:       "journal_entry",
		OccurredAt:   time.Date(2025, 5, 21, 10, 0, 0, 0, time.UTC),
	}
}

func NewUser(id string) *entities.User {
	return &entities.User{
		ID:          id,
		DisplayName: fmt.Sprintf("User %s", id),
		Bio:         fmt.Sprintf("Bio of user %s", id),
	}
}

// NewNodeReference builds a node reference with defaults
func NewNodeReference(id string) valueobjects.NodeReference {
	return valueobjects.NodeReference{
		ID:      id,
		OwnerID: "test-user-123",
		Title:   fmt.Sprintf("Node %s", id),
		Content: fmt.Sprintf("Content of node %s", id),
	}
}
