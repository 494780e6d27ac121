package handlers

import (
	"net/http"
	"strconv"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/valueobjects"
	"cosmos-backend/pkg/common"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FeedHandler serves sorted, paginated card listings for the gallery
type FeedHandler struct {
	cards    ports.CardStore
	pageSize int
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFeedHandler creates a feed handler. pageSize is the limit applied when
// the request does not carry one.
func NewFeedHandler(cards ports.CardStore, pageSize int, logger *zap.Logger) *FeedHandler {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	return &FeedHandler{
		cards:    cards,
		pageSize: pageSize,
		validate: validator.New(),
		logger:   logger,
	}
}

type listCardsParams struct {
	UserID     string `validate:"required"`
	Limit      int    `validate:"gte=0,lte=100"`
	Offset     int    `validate:"gte=0"`
	Sort       string `validate:"omitempty,oneof=newest oldest title_asc title_desc"`
	CoverFirst bool
	Favorited  bool
}

// ListCards returns one page of a user's cards, sorted server-side.
// Pages for a fixed sort are a prefix of one global order, so the gallery
// can append them without client-side re-sorting.
func (h *FeedHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := listCardsParams{
		UserID:     q.Get("userId"),
		Limit:      intParam(q.Get("limit"), h.pageSize),
		Offset:     intParam(q.Get("offset"), 0),
		Sort:       q.Get("sort"),
		CoverFirst: q.Get("coverFirst") == "true",
		Favorited:  q.Get("favorited") == "true",
	}
	if err := h.validate.Struct(params); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	sortKey := valueobjects.SortNewest
	if params.Sort != "" {
		sortKey = valueobjects.SortKey(params.Sort)
	}

	pageReq := common.PageRequest{Limit: params.Limit, Offset: params.Offset}
	page, err := h.cards.List(r.Context(), ports.CardListQuery{
		UserID:        params.UserID,
		Limit:         pageReq.EffectiveLimit(),
		Offset:        pageReq.EffectiveOffset(),
		SortField:     sortKey.Field(),
		SortOrder:     sortKey.Order(),
		CoverFirst:    params.CoverFirst,
		FavoritedOnly: params.Favorited,
	})
	if err != nil {
		h.logger.Error("card listing failed",
			zap.String("userID", params.UserID),
			zap.Error(err),
		)
		common.RespondError(w, http.StatusInternalServerError, "LIST_FAILED", "could not list cards")
		return
	}

	out := make([]cardDTO, 0, len(page.Cards))
	for _, card := range page.Cards {
		out = append(out, toCardDTO(card))
	}

	common.RespondPage(w, http.StatusOK, out, common.PaginationInfo{
		Limit:      pageReq.EffectiveLimit(),
		Offset:     pageReq.EffectiveOffset(),
		TotalCount: page.TotalCount,
		HasMore:    page.HasMore,
	})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
