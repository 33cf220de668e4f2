package submissions

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against a real server; set MONGO_URI to run them.
func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("portfolio_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewMongoStore(db.Collection("submissions"))
}

func TestMongoStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newMongoStore(t) })
}

func TestFilterToBSON(t *testing.T) {
	assert.Equal(t, bson.M{}, filterToBSON(ListFilter{}))
	assert.Equal(t, bson.M{"type": TypeBooking}, filterToBSON(ListFilter{Type: TypeBooking}))
	assert.Equal(t, bson.M{"type": TypeMessage, "read": false}, filterToBSON(ListFilter{Read: boolPtr(false)}))
	assert.Equal(t, bson.M{"type": TypeBooking, "status": StatusCancelled}, filterToBSON(ListFilter{Status: StatusCancelled}))
}

func TestUpdatePipelineClampsUpdatedAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 123456789, time.UTC)
	status := StatusConfirmed
	date, clock := "2030-04-01", "14:30"

	got := updatePipeline(Update{Read: boolPtr(true), Status: &status, Date: &date, Time: &clock}, now)
	want := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "read", Value: bson.D{{Key: "$literal", Value: true}}},
		{Key: "status", Value: bson.D{{Key: "$literal", Value: "confirmed"}}},
		{Key: "date", Value: bson.D{{Key: "$literal", Value: "2030-04-01"}}},
		{Key: "time", Value: bson.D{{Key: "$literal", Value: "14:30"}}},
		{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{stamp(now), "$timestamp"}}}},
	}}}}
	assert.Equal(t, want, got)

	onlyStamp := updatePipeline(Update{}, now)
	require.Len(t, onlyStamp, 1)
	assert.Equal(t, bson.D{
		{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{stamp(now), "$timestamp"}}}},
	}, onlyStamp[0][0].Value)
}
