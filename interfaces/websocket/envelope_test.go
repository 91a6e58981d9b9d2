package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusboard/domain/node"
)

func TestEnvelopeType(t *testing.T) {
	kind, err := envelopeType([]byte(`{"type":"node:move","nodeId":"n1"}`))

	require.NoError(t, err)
	assert.Equal(t, "node:move", kind)
}

func TestEnvelopeType_Malformed(t *testing.T) {
	_, err := envelopeType([]byte(`{"type":`))

	assert.Error(t, err)
}

func TestIsPresenceType_AcceptsBothAliases(t *testing.T) {
	assert.True(t, isPresenceType(TypePresenceCursor))
	assert.True(t, isPresenceType(TypePresenceMouse))
	assert.False(t, isPresenceType("node:move"))
}

func TestDecodeMutation_Move(t *testing.T) {
	m, err := decodeMutation([]byte(`{"type":"node:move","nodeId":"n1","x":120,"y":340,"lastModified":5000}`))

	require.NoError(t, err)
	assert.Equal(t, node.MutationMove, m.Type)
	assert.Equal(t, "n1", m.NodeID)
	assert.Equal(t, 120.0, m.X)
	assert.Equal(t, 340.0, m.Y)
	assert.Equal(t, int64(5000), m.Timestamp)
}

func TestDecodeMutation_ZeroTimestampStamped(t *testing.T) {
	m, err := decodeMutation([]byte(`{"type":"node:rename","nodeId":"n1","title":"New"}`))

	require.NoError(t, err)
	assert.Greater(t, m.Timestamp, int64(0))
}

func TestDecodeMutation_CreateCarriesNode(t *testing.T) {
	raw := `{"type":"node:create","node":{"nodeId":"n1","name":"Dept","type":"folder","projectId":"p1","x":1,"y":2,"lastModified":9000}}`

	m, err := decodeMutation([]byte(raw))

	require.NoError(t, err)
	require.NotNil(t, m.Node)
	assert.Equal(t, "n1", m.NodeID)
	assert.Equal(t, int64(9000), m.Timestamp)
}

func TestDecodeMutation_CreateWithoutNodeRejected(t *testing.T) {
	_, err := decodeMutation([]byte(`{"type":"node:create"}`))

	assert.Error(t, err)
}

func TestDecodeMutation_MissingNodeIDRejected(t *testing.T) {
	_, err := decodeMutation([]byte(`{"type":"node:delete"}`))

	assert.Error(t, err)
}

func TestEncodeMutation_RoundTripsType(t *testing.T) {
	m := node.NewMove("n1", 10, 20, 3000)

	raw, err := encodeMutation(m)

	require.NoError(t, err)
	kind, err := envelopeType(raw)
	require.NoError(t, err)
	assert.Equal(t, "node:move", kind)
}
