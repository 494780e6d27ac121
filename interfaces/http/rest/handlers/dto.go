package handlers

import (
	"time"

	"cosmos-backend/domain/core/entities"
)

// cardDTO is the wire shape of a raw card row, before entity hydration
type cardDTO struct {
	ID                 string  `json:"id"`
	OwnerID            string  `json:"ownerId"`
	Type               string  `json:"type"`
	SourceEntityID     string  `json:"sourceEntityId"`
	SourceEntityKind   string  `json:"sourceEntityKind"`
	Status             string  `json:"status"`
	IsFavorited        bool    `json:"isFavorited"`
	BackgroundImageURL string  `json:"backgroundImageUrl,omitempty"`
	CustomTitle        *string `json:"customTitle,omitempty"`
	CustomContent      *string `json:"customContent,omitempty"`
	DisplayOrder       int     `json:"displayOrder"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toCardDTO(card *entities.Card) cardDTO {
	return cardDTO{
		ID:                 card.ID,
		OwnerID:            card.OwnerID,
		Type:               card.Type.String(),
		SourceEntityID:     card.SourceEntityID,
		SourceEntityKind:   card.SourceEntityKind.String(),
		Status:             string(card.Status),
		IsFavorited:        card.IsFavorited,
		BackgroundImageURL: card.BackgroundImageURL,
		CustomTitle:        card.CustomTitle,
		CustomContent:      card.CustomContent,
		DisplayOrder:       card.DisplayOrder,
		CreatedAt:          card.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          card.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
