package valueobjects

import "cosmos-backend/domain/core/entities"

// NodeReference is an opaque reference arriving from the graph layer.
// It may or may not correspond 1:1 to a stored card; the resolution layer
// maps it onto a canonical card identity. Title and content are optional
// hints that feed the matching strategies.
type NodeReference struct {
	ID      string
	OwnerID string
	Title   string
	Content string

	// Connections embedded in the node payload by the graph layer.
	// Edge discovery is not this core's job; these are passed through.
	Connections []NodeConnection
	Metadata    map[string]interface{}
}

// NodeConnection is one edge carried inside a node payload
type NodeConnection struct {
	TargetID string
	Label    string
	Weight   float64
}

// AllConnections merges the node's explicit connections with any carried
// under metadata["connections"], which is how older graph payloads ship
// them.
func (n NodeReference) AllConnections() []NodeConnection {
	out := make([]NodeConnection, 0, len(n.Connections))
	out = append(out, n.Connections...)

	raw, ok := n.Metadata["connections"]
	if !ok {
		return out
	}
	items, ok := raw.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		conn := NodeConnection{}
		if v, ok := fields["targetId"].(string); ok {
			conn.TargetID = v
		}
		if v, ok := fields["label"].(string); ok {
			conn.Label = v
		}
		if v, ok := fields["weight"].(float64); ok {
			conn.Weight = v
		}
		if conn.TargetID != "" {
			out = append(out, conn)
		}
	}
	return out
}

// NodeCardMapping is a cached resolution result: which card a node maps to
// and how strongly the winning strategy trusted the match.
type NodeCardMapping struct {
	NodeID     string
	CardID     string
	CardType   entities.EntityKind
	Confidence float64
}
