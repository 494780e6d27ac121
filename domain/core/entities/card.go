package entities

import "time"

// CardStatus represents where a card lives in the user's workspace
type CardStatus string

const (
	CardStatusActiveCanvas  CardStatus = "active_canvas"
	CardStatusActiveArchive CardStatus = "active_archive"
	CardStatusCompleted     CardStatus = "completed"
)

// Fallback display values for cards whose source entity cannot be resolved.
const (
	FallbackTitle   = "Untitled"
	FallbackContent = ""
)

// Card is the canonical presentation-layer record. It is a pointer at a
// source entity plus presentation overrides; the substantive title and
// content live in the entity table named by SourceEntityKind.
type Card struct {
	ID                 string
	OwnerID            string
	Type               EntityKind
	SourceEntityID     string
	SourceEntityKind   EntityKind
	Status             CardStatus
	IsFavorited        bool
	BackgroundImageURL string

	// Presentation overrides. nil means "use the source entity's value";
	// a non-nil empty string is a deliberate override.
	CustomTitle   *string
	CustomContent *string

	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCover reports whether the card carries a background image
func (c *Card) HasCover() bool {
	return c.BackgroundImageURL != ""
}

// CardData is the hydrated view of a card: the card row merged with the
// resolved display title and content. Derived, never persisted.
type CardData struct {
	Card
	Title   string
	Content string
}

// WithEntity merges the card with its source entity into a CardData.
// Custom overrides win over the entity value; a missing entity degrades to
// the "Untitled"/empty fallback instead of failing.
func (c *Card) WithEntity(entity SourceEntity) *CardData {
	data := &CardData{
		Card:    *c,
		Title:   FallbackTitle,
		Content: FallbackContent,
	}

	if entity != nil {
		if title := entity.DisplayTitle(); title != "" {
			data.Title = title
		}
		data.Content = entity.DisplayContent()
	}

	if c.CustomTitle != nil {
		data.Title = *c.CustomTitle
	}
	if c.CustomContent != nil {
		data.Content = *c.CustomContent
	}

	return data
}
