package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"cosmos-backend/application/resolution"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	"cosmos-backend/pkg/common"
	"go.uber.org/zap"
)

// NodeHandler serves node-to-card resolution requests from the graph UI
type NodeHandler struct {
	resolver *resolution.Resolver
	logger   *zap.Logger
}

// NewNodeHandler creates a node handler
func NewNodeHandler(resolver *resolution.Resolver, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{resolver: resolver, logger: logger}
}

type nodeConnectionDTO struct {
	TargetID string  `json:"targetId"`
	Label    string  `json:"label,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

type resolveNodeRequest struct {
	ID          string                 `json:"id"`
	OwnerID     string                 `json:"ownerId"`
	Title       string                 `json:"title,omitempty"`
	Content     string                 `json:"content,omitempty"`
	Connections []nodeConnectionDTO    `json:"connections,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type cardDataDTO struct {
	ID                 string  `json:"id"`
	OwnerID            string  `json:"ownerId"`
	Type               string  `json:"type"`
	SourceEntityID     string  `json:"sourceEntityId"`
	SourceEntityKind   string  `json:"sourceEntityKind"`
	Status             string  `json:"status"`
	IsFavorited        bool    `json:"isFavorited"`
	BackgroundImageURL string  `json:"backgroundImageUrl,omitempty"`
	DisplayOrder       int     `json:"displayOrder"`
	Title              string  `json:"title"`
	Content            string  `json:"content"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

type resolveNodeResponse struct {
	Card         *cardDataDTO        `json:"card"`
	RelatedCards []cardDataDTO       `json:"relatedCards"`
	Connections  []nodeConnectionDTO `json:"connections"`
}

// ResolveNode maps a graph node onto a card and returns its full display
// payload. An unmatched node is a successful response with a null card,
// not an error.
func (h *NodeHandler) ResolveNode(w http.ResponseWriter, r *http.Request) {
	var req resolveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be a node payload")
		return
	}

	node := valueobjects.NodeReference{
		ID:       req.ID,
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	}
	for _, c := range req.Connections {
		node.Connections = append(node.Connections, valueobjects.NodeConnection{
			TargetID: c.TargetID,
			Label:    c.Label,
			Weight:   c.Weight,
		})
	}

	payload, err := h.resolver.GetNodeCardData(r.Context(), node)
	if err != nil {
		h.logger.Error("node resolution failed",
			zap.String("nodeID", req.ID),
			zap.Error(err),
		)
		common.RespondError(w, http.StatusInternalServerError, "RESOLUTION_FAILED", "could not resolve node")
		return
	}

	resp := resolveNodeResponse{
		RelatedCards: make([]cardDataDTO, 0, len(payload.RelatedCards)),
		Connections:  make([]nodeConnectionDTO, 0, len(payload.Connections)),
	}
	if payload.Card != nil {
		dto := toCardDataDTO(payload.Card)
		resp.Card = &dto
	}
	for _, related := range payload.RelatedCards {
		resp.RelatedCards = append(resp.RelatedCards, toCardDataDTO(related))
	}
	for _, conn := range payload.Connections {
		resp.Connections = append(resp.Connections, nodeConnectionDTO{
			TargetID: conn.TargetID,
			Label:    conn.Label,
			Weight:   conn.Weight,
		})
	}

	common.RespondJSON(w, http.StatusOK, resp)
}

func toCardDataDTO(card *entities.CardData) cardDataDTO {
	return cardDataDTO{
		ID:                 card.ID,
		OwnerID:            card.OwnerID,
		Type:               card.Type.String(),
		SourceEntityID:     card.SourceEntityID,
		SourceEntityKind:   card.SourceEntityKind.String(),
		Status:             string(card.Status),
		IsFavorited:        card.IsFavorited,
		BackgroundImageURL: card.BackgroundImageURL,
		DisplayOrder:       card.DisplayOrder,
		Title:              card.Title,
		Content:            card.Content,
		CreatedAt:          card.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          card.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
