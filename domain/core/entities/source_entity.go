package entities

import (
	"fmt"
	"time"
)

// SourceEntity is the tagged union over the per-kind content tables.
// A card never owns its substantive content; it points at exactly one of
// these variants. Every variant can produce a display title and content,
// the rest of its shape varies by kind.
type SourceEntity interface {
	Kind() EntityKind
	EntityID() string
	DisplayTitle() string
	DisplayContent() string
}

// MemoryUnit is a captured journal or conversation fragment.
type MemoryUnit struct {
	ID              string
	Title           string
	Content         string
	ImportanceScore float64
	IngestedAt      time.Time
}

func (m *MemoryUnit) Kind() EntityKind       { return KindMemoryUnit }
func (m *MemoryUnit) EntityID() string       { return m.ID }
func (m *MemoryUnit) DisplayTitle() string   { return m.Title }
func (m *MemoryUnit) DisplayContent() string { return m.Content }

// Concept is a distilled idea or theme extracted from memory units.
type Concept struct {
	ID          string
	Name        string
	Description string
	ConceptType string
	Salience    float64
}

func (c *Concept) Kind() EntityKind       { return KindConcept }
func (c *Concept) EntityID() string       { return c.ID }
func (c *Concept) DisplayTitle() string   { return c.Name }
func (c *Concept) DisplayContent() string { return c.Description }

// DerivedArtifact is synthesized output (insight, summary, story thread).
type DerivedArtifact struct {
	ID           string
	Title        string
	ContentBody  string
	ArtifactType string
}

func (d *DerivedArtifact) Kind() EntityKind       { return KindDerivedArtifact }
func (d *DerivedArtifact) EntityID() string       { return d.ID }
func (d *DerivedArtifact) DisplayTitle() string   { return d.Title }
func (d *DerivedArtifact) DisplayContent() string { return d.ContentBody }

// ProactivePrompt is a reflection question generated for the user.
type ProactivePrompt struct {
	ID         string
	Title      string
	PromptText string
	PromptType string
	Status     string
}

func (p *ProactivePrompt) Kind() EntityKind       { return KindProactivePrompt }
func (p *ProactivePrompt) EntityID() string       { return p.ID }
func (p *ProactivePrompt) DisplayTitle() string   { return p.Title }
func (p *ProactivePrompt) DisplayContent() string { return p.PromptText }

// Community is a cluster of related concepts.
type Community struct {
	ID          string
	Name        string
	Description string
	MemberCount int
}

func (c *Community) Kind() EntityKind       { return KindCommunity }
func (c *Community) EntityID() string       { return c.ID }
func (c *Community) DisplayTitle() string   { return c.Name }
func (c *Community) DisplayContent() string { return c.Description }

// GrowthEvent records a delta on one of the user's growth dimensions.
type GrowthEvent struct {
	ID           string
	DimensionKey string
	Rationale    string
	Delta        float64
	Source       string
	OccurredAt   time.Time
}

func (g *GrowthEvent) Kind() EntityKind { return KindGrowthEvent }
func (g *GrowthEvent) EntityID() string { return g.ID }
func (g *GrowthEvent) DisplayTitle() string {
	if g.DimensionKey == "" {
		return ""
	}
	return fmt.Sprintf("Growth: %s", g.DimensionKey)
}
func (g *GrowthEvent) DisplayContent() string { return g.Rationale }

// User is the account-level entity; it backs the identity card.
type User struct {
	ID          string
	DisplayName string
	Bio         string
}

func (u *User) Kind() EntityKind       { return KindUser }
func (u *User) EntityID() string       { return u.ID }
func (u *User) DisplayTitle() string   { return u.DisplayName }
func (u *User) DisplayContent() string { return u.Bio }
