package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col, now: time.Now}
}

func (r *MongoStore) Append(ctx context.Context, s Submission) (string, error) {
	prepareForAppend(&s, r.now())
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateID
		}
		return "", unavailable(err)
	}
	return s.ID, nil
}

func (r *MongoStore) Get(ctx context.Context, id string) (Submission, error) {
	var s Submission
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, unavailable(err)
	}
	return s, nil
}

func (r *MongoStore) List(ctx context.Context, filter ListFilter) ([]Submission, int64, error) {
	query := filterToBSON(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(filter.Offset)
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, unavailable(err)
	}
	defer cursor.Close(ctx)

	items := make([]Submission, 0)
	for cursor.Next(ctx) {
		var s Submission
		if err := cursor.Decode(&s); err != nil {
			return nil, 0, unavailable(err)
		}
		items = append(items, s)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, unavailable(err)
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, unavailable(err)
	}
	return items, total, nil
}

func (r *MongoStore) Patch(ctx context.Context, id string, u Update) (Submission, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Submission
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, updatePipeline(u, r.now()), opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, unavailable(err)
	}
	return updated, nil
}

// updatePipeline sets the changed fields and an updatedAt that never falls
// behind the stored timestamp. Values go through $literal so a string is
// never read as a field path.
func updatePipeline(u Update, now time.Time) mongo.Pipeline {
	set := bson.D{}
	if u.Read != nil {
		set = append(set, bson.E{Key: "read", Value: literal(*u.Read)})
	}
	if u.Status != nil {
		set = append(set, bson.E{Key: "status", Value: literal(string(*u.Status))})
	}
	if u.Date != nil && u.Time != nil {
		set = append(set,
			bson.E{Key: "date", Value: literal(*u.Date)},
			bson.E{Key: "time", Value: literal(*u.Time)},
		)
	}
	set = append(set, bson.E{Key: "updatedAt", Value: bson.D{
		{Key: "$max", Value: bson.A{stamp(now), "$timestamp"}},
	}})
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func literal(v interface{}) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (r *MongoStore) Ping(ctx context.Context) error {
	if err := r.col.Database().Client().Ping(ctx, nil); err != nil {
		return unavailable(err)
	}
	return nil
}

func filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Read != nil {
		query["type"] = TypeMessage
		query["read"] = *filter.Read
	}
	if filter.Status != "" {
		query["type"] = TypeBooking
		query["status"] = filter.Status
	}
	return query
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
