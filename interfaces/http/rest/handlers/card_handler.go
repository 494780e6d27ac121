package handlers

import (
	"encoding/json"
	"net/http"

	"cosmos-backend/application/loaders"
	"cosmos-backend/application/ports"
	"cosmos-backend/pkg/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CardHandler serves hydrated card reads
type CardHandler struct {
	loader *loaders.CardLoader
	cards  ports.CardStore
	logger *zap.Logger
}

// NewCardHandler creates a card handler
func NewCardHandler(loader *loaders.CardLoader, cards ports.CardStore, logger *zap.Logger) *CardHandler {
	return &CardHandler{loader: loader, cards: cards, logger: logger}
}

// GetCard returns one card hydrated with its source-entity content
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		common.RespondError(w, http.StatusBadRequest, "INVALID_CARD_ID", "card ID is required")
		return
	}

	card, err := h.loader.GetCardWithEntityData(r.Context(), cardID)
	if err != nil {
		h.logger.Error("card load failed", zap.String("cardID", cardID), zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, "CARD_LOAD_FAILED", "could not load card")
		return
	}
	if card == nil {
		common.RespondError(w, http.StatusNotFound, "CARD_NOT_FOUND", "no card with that ID")
		return
	}

	common.RespondJSON(w, http.StatusOK, toCardDataDTO(card))
}

type batchCardsRequest struct {
	CardIDs []string `json:"cardIds"`
}

// BatchCards returns hydrated card data for a set of card IDs in one
// round-trip per entity kind
func (h *CardHandler) BatchCards(w http.ResponseWriter, r *http.Request) {
	var req batchCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must list card IDs")
		return
	}
	if len(req.CardIDs) == 0 {
		common.RespondJSON(w, http.StatusOK, []cardDataDTO{})
		return
	}

	cards, err := h.cards.FindManyByIDs(r.Context(), req.CardIDs)
	if err != nil {
		h.logger.Error("card batch lookup failed", zap.Int("ids", len(req.CardIDs)), zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, "CARD_BATCH_FAILED", "could not load cards")
		return
	}

	hydrated, err := h.loader.LoadEntityDataBatch(r.Context(), cards)
	if err != nil {
		h.logger.Error("card batch hydration failed", zap.Int("cards", len(cards)), zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, "CARD_BATCH_FAILED", "could not hydrate cards")
		return
	}

	out := make([]cardDataDTO, 0, len(hydrated))
	for _, card := range hydrated {
		out = append(out, toCardDataDTO(card))
	}
	common.RespondJSON(w, http.StatusOK, out)
}
