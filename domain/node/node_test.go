package node

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AppliesDefaults(t *testing.T) {
	n, err := New("p1", "Radiology", KindFolder, 10, 20)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n.ID, "n-"))
	assert.Equal(t, KindFolder, n.Kind)
	assert.Equal(t, DefaultWidth, n.Width)
	assert.Equal(t, DefaultHeight, n.Height)
	assert.Equal(t, StatusActive, n.Status)
	assert.Equal(t, n.CreatedAt, n.LastModified)
	assert.Greater(t, n.LastModified, int64(0))
}

func TestNew_RequiresProjectAndTitle(t *testing.T) {
	_, err := New("", "Radiology", KindNode, 0, 0)
	assert.Error(t, err)

	_, err = New("p1", "", KindNode, 0, 0)
	assert.Error(t, err)
}

func TestNew_UnknownKindFallsBackToNode(t *testing.T) {
	n, err := New("p1", "X", Kind("widget"), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, KindNode, n.Kind)
}

func TestNormalize_FillsZeroValues(t *testing.T) {
	n := Node{ID: "a", Status: Status("bogus")}

	n.Normalize()

	assert.Equal(t, DefaultWidth, n.Width)
	assert.Equal(t, DefaultHeight, n.Height)
	assert.Equal(t, StatusIdle, n.Status)
	assert.Equal(t, KindNode, n.Kind)
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusOffline.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("broken").Valid())
}

func TestMutationConstructors(t *testing.T) {
	n := Node{ID: "a", ProjectID: "p1", LastModified: 42}

	create := NewCreate(n)
	assert.Equal(t, MutationCreate, create.Type)
	assert.Equal(t, "a", create.NodeID)
	require.NotNil(t, create.Node)

	move := NewMove("a", 1, 2, 99)
	assert.Equal(t, MutationMove, move.Type)
	assert.Equal(t, 1.0, move.X)
	assert.Equal(t, int64(99), move.Timestamp)

	rename := NewRename("a", "New", 99)
	assert.Equal(t, MutationRename, rename.Type)
	assert.Equal(t, "New", rename.Title)

	del := NewDelete("a", 99)
	assert.Equal(t, MutationDelete, del.Type)
}
