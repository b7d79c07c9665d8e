package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eduverse/site-backend/internal/models"
)

func TestIDFilterMatchesObjectIDAndString(t *testing.T) {
	oid := primitive.NewObjectID()

	f := idFilter(oid.Hex())
	in, ok := f["_id"].(bson.M)
	require.True(t, ok, "expected $in filter, got %v", f)
	assert.Equal(t, bson.A{oid, oid.Hex()}, in["$in"])

	_, err := bson.Marshal(f)
	require.NoError(t, err)
}

func TestIDFilterKeepsOpaqueIDs(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "mock-genai-bootcamp-2025"}, idFilter("mock-genai-bootcamp-2025"))
}

func TestObjectIDDocumentDecodesAsHex(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{"_id": oid, "title": "GenAI Bootcamp", "type": models.EventTypeUpcoming})
	require.NoError(t, err)

	var e models.Event
	require.NoError(t, bson.Unmarshal(raw, &e))
	assert.Equal(t, oid.Hex(), e.ID)
	assert.Equal(t, "GenAI Bootcamp", e.Title)
}
