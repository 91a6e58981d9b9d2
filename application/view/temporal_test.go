package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nexusboard/domain/node"
	"nexusboard/tests/fixtures"
)

func TestFilterByTime_EpsilonBoundary(t *testing.T) {
	cursor := int64(10_000)
	nodes := []node.Node{
		fixtures.NewNodeBuilder().WithID("old").WithLastModified(cursor - 1).Build(),
		fixtures.NewNodeBuilder().WithID("at-cursor").WithLastModified(cursor).Build(),
		fixtures.NewNodeBuilder().WithID("within-epsilon").WithLastModified(cursor + Epsilon).Build(),
		fixtures.NewNodeBuilder().WithID("beyond").WithLastModified(cursor + Epsilon + 1).Build(),
	}

	got := FilterByTime(nodes, cursor, "")

	ids := make([]string, 0, len(got))
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"old", "at-cursor", "within-epsilon"}, ids)
}

func TestFilterByTime_PinnedNodeSurvivesCursor(t *testing.T) {
	// A node mid-drag carries a pending stamp far ahead of the cursor but
	// must stay in view.
	cursor := int64(10_000)
	nodes := []node.Node{
		fixtures.NewNodeBuilder().WithID("dragged").WithLastModified(cursor + 60_000).Build(),
		fixtures.NewNodeBuilder().WithID("future").WithLastModified(cursor + 60_000).Build(),
	}

	got := FilterByTime(nodes, cursor, "dragged")

	assert.Len(t, got, 1)
	assert.Equal(t, "dragged", got[0].ID)
}

func TestFilterByTime_EmptySet(t *testing.T) {
	got := FilterByTime(nil, 0, "")
	assert.Empty(t, got)
}
