package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/permitscope/permitscope/pkg/errors"
)

const viewsCollection = "views"

// MongoStore is a MongoDB-backed Store for server deployments.
type MongoStore struct {
	client *mongo.Client
	views  *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// ping.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	return &MongoStore{
		client: client,
		views:  client.Database(database).Collection(viewsCollection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, view *View) error {
	prepare(view)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.views.ReplaceOne(ctx, bson.M{"_id": view.ID}, view, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save view %s", view.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*View, error) {
	var view View
	err := s.views.FindOne(ctx, bson.M{"_id": id}).Decode(&view)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get view %s", id)
	}
	return &view, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*View, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.views.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list views")
	}
	defer cursor.Close(ctx)

	var views []*View
	if err := cursor.All(ctx, &views); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode views")
	}
	return views, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.views.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete view %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
