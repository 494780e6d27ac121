package feed

import (
	"context"
	"sync"

	"cosmos-backend/application/ports"
	"cosmos-backend/domain/core/entities"
	"cosmos-backend/domain/core/valueobjects"
	"cosmos-backend/pkg/errors"
	"go.uber.org/zap"
)

// DefaultPageSize is the page size used when none is configured
const DefaultPageSize = 20

// CardFeed is a growable, sorted, paginated view over one user's cards.
// Loaded cards are always a prefix of the globally sorted sequence for the
// current sort: pages are appended strictly in fetch order and the
// server-side sort is authoritative. A new page load supersedes any
// in-flight one; superseded results are discarded at the point they would
// be applied, so a slow earlier request can never clobber a faster later
// one.
type CardFeed struct {
	store    ports.CardStore
	userID   string
	pageSize int
	logger   *zap.Logger

	mu         sync.Mutex
	sortKey    valueobjects.SortKey
	coverFirst bool
	page       int
	loaded     []*entities.Card
	totalCount int
	hasMore    bool
	loading    bool
	generation uint64
	cancel     context.CancelCauseFunc
}

var errSuperseded = errors.NewCancelled("feed request superseded")

// NewCardFeed creates a feed for one user's gallery session
func NewCardFeed(store ports.CardStore, userID string, pageSize int, logger *zap.Logger) *CardFeed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CardFeed{
		store:    store,
		userID:   userID,
		pageSize: pageSize,
		logger:   logger,
		sortKey:  valueobjects.SortNewest,
		hasMore:  true,
	}
}

// LoadInitialCards resets the feed to the given sort and loads page zero
func (f *CardFeed) LoadInitialCards(ctx context.Context, sortKey valueobjects.SortKey, coverFirst bool) ([]*entities.Card, error) {
	if !sortKey.Valid() {
		return nil, errors.NewValidation("unknown sort key: " + sortKey.String())
	}

	f.mu.Lock()
	f.resetLocked()
	f.sortKey = sortKey
	f.coverFirst = coverFirst
	f.mu.Unlock()

	return f.LoadNextPage(ctx)
}

// LoadNextPage fetches the next page and appends it to the loaded set.
// Returns the newly loaded cards. A feed with no more pages returns nil.
// If a fetch is already in flight it is cancelled and superseded by this
// one; the superseded caller receives a cancelled error, never stale data.
func (f *CardFeed) LoadNextPage(ctx context.Context) ([]*entities.Card, error) {
	f.mu.Lock()
	if !f.hasMore {
		f.mu.Unlock()
		return nil, nil
	}
	if f.loading && f.cancel != nil {
		f.cancel(errSuperseded)
	}

	f.generation++
	gen := f.generation
	f.loading = true

	fetchCtx, cancel := context.WithCancelCause(ctx)
	f.cancel = cancel

	query := ports.CardListQuery{
		UserID:     f.userID,
		Limit:      f.pageSize,
		Offset:     f.page * f.pageSize,
		SortField:  f.sortKey.Field(),
		SortOrder:  f.sortKey.Order(),
		CoverFirst: f.coverFirst,
	}
	f.mu.Unlock()

	page, err := f.store.List(fetchCtx, query)

	f.mu.Lock()
	defer f.mu.Unlock()

	// Cancellation is checked where results are applied, not where the
	// call was issued.
	if gen != f.generation {
		return nil, errSuperseded
	}
	f.loading = false

	if err != nil {
		if fetchCtx.Err() != nil {
			return nil, errSuperseded
		}
		// Prior feed state stays untouched so the UI can offer a retry
		// without losing already-loaded pages.
		f.logger.Warn("card page load failed",
			zap.String("userID", f.userID),
			zap.Int("page", f.page),
			zap.Error(err),
		)
		return nil, errors.NewTransport("load card page", err)
	}

	f.loaded = append(f.loaded, page.Cards...)
	f.page++
	f.totalCount = page.TotalCount
	f.hasMore = page.HasMore
	return page.Cards, nil
}

// ChangeSort switches the feed to a new sort key. The loaded set is fully
// reset and reloaded from page zero; already-loaded pages are never
// re-sorted in place. Unchanged sort is a no-op.
func (f *CardFeed) ChangeSort(ctx context.Context, sortKey valueobjects.SortKey) ([]*entities.Card, error) {
	f.mu.Lock()
	if sortKey == f.sortKey {
		f.mu.Unlock()
		return nil, nil
	}
	coverFirst := f.coverFirst
	f.mu.Unlock()

	return f.LoadInitialCards(ctx, sortKey, coverFirst)
}

// Reset cancels in-flight work and clears all accumulated state
func (f *CardFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// resetLocked cancels any in-flight fetch and clears state. Caller holds mu.
func (f *CardFeed) resetLocked() {
	if f.cancel != nil {
		f.cancel(errSuperseded)
		f.cancel = nil
	}
	f.generation++
	f.page = 0
	f.loaded = nil
	f.totalCount = 0
	f.hasMore = true
	f.loading = false
}

// GetAllCards returns a copy of every card loaded so far, in feed order
func (f *CardFeed) GetAllCards() []*entities.Card {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*entities.Card, len(f.loaded))
	copy(out, f.loaded)
	return out
}

// GetTotalCount returns the server-reported total for the current sort
func (f *CardFeed) GetTotalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalCount
}

// HasMoreCards reports whether another page can be loaded
func (f *CardFeed) HasMoreCards() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// IsCurrentlyLoading reports whether a fetch is in flight
func (f *CardFeed) IsCurrentlyLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// GetCurrentSortKey returns the active sort key
func (f *CardFeed) GetCurrentSortKey() valueobjects.SortKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortKey
}
