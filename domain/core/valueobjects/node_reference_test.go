package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeReference_AllConnections_Explicit(t *testing.T) {
	node := NodeReference{
		ID: "node-1",
		Connections: []NodeConnection{
			{TargetID: "node-2", Label: "follows", Weight: 0.9},
		},
	}

	conns := node.AllConnections()

	require.Len(t, conns, 1)
	assert.Equal(t, "node-2", conns[0].TargetID)
}

func TestNodeReference_AllConnections_MergesMetadata(t *testing.T) {
	node := NodeReference{
		ID:          "node-1",
		Connections: []NodeConnection{{TargetID: "node-2", Label: "follows"}},
		Metadata: map[string]interface{}{
			"connections": []interface{}{
				map[string]interface{}{"targetId": "node-3", "label": "relates_to", "weight": 0.4},
				map[string]interface{}{"targetId": "node-4"},
			},
		},
	}

	conns := node.AllConnections()

	require.Len(t, conns, 3)
	assert.Equal(t, "node-2", conns[0].TargetID)
	assert.Equal(t, "node-3", conns[1].TargetID)
	assert.Equal(t, "relates_to", conns[1].Label)
	assert.Equal(t, 0.4, conns[1].Weight)
	assert.Equal(t, "node-4", conns[2].TargetID)
}

func TestNodeReference_AllConnections_SkipsMalformedEntries(t *testing.T) {
	node := NodeReference{
		ID: "node-1",
		Metadata: map[string]interface{}{
			"connections": []interface{}{
				"not a map",
				map[string]interface{}{"label": "orphan edge without target"},
				map[string]interface{}{"targetId": "node-5"},
			},
		},
	}

	conns := node.AllConnections()

	require.Len(t, conns, 1)
	assert.Equal(t, "node-5", conns[0].TargetID)
}

func TestNodeReference_AllConnections_WrongMetadataShape(t *testing.T) {
	node := NodeReference{
		ID:       "node-1",
		Metadata: map[string]interface{}{"connections": "oops"},
	}

	assert.Empty(t, node.AllConnections())
}
