package entities

import "fmt"

// EntityKind identifies which source-entity table a card points at.
type EntityKind string

const (
	KindMemoryUnit      EntityKind = "memory_unit"
	KindConcept         EntityKind = "concept"
	KindDerivedArtifact EntityKind = "derived_artifact"
	KindProactivePrompt EntityKind = "proactive_prompt"
	KindCommunity       EntityKind = "community"
	KindGrowthEvent     EntityKind = "growth_event"
	KindUser            EntityKind = "user"
)

// AllEntityKinds returns every known entity kind. The gateway registry is
// built from this list, so adding a kind without a gateway fails at startup
// rather than silently falling through at query time.
func AllEntityKinds() []EntityKind {
	return []EntityKind{
		KindMemoryUnit,
		KindConcept,
		KindDerivedArtifact,
		KindProactivePrompt,
		KindCommunity,
		KindGrowthEvent,
		KindUser,
	}
}

// ParseEntityKind converts a raw string into an EntityKind
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindMemoryUnit, KindConcept, KindDerivedArtifact, KindProactivePrompt,
		KindCommunity, KindGrowthEvent, KindUser:
		return EntityKind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind: %q", s)
	}
}

// Valid reports whether the kind is one of the known entity kinds
func (k EntityKind) Valid() bool {
	_, err := ParseEntityKind(string(k))
	return err == nil
}

func (k EntityKind) String() string {
	return string(k)
}
