package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtroode/userdir-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// userDocument is the stored shape of a user. The id is kept as its
// canonical string form so documents stay readable from the mongo shell.
type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d userDocument) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return model.User{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

type UserRepository struct {
	conn       *Connection
	collection *mongo.Collection
	now        func() time.Time
}

// NewUserRepository binds to collection and makes sure the unique email
// index exists before any write is accepted.
func NewUserRepository(ctx context.Context, conn *Connection, collection string) (*UserRepository, error) {
	coll := conn.database.Collection(collection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure email index: %w", err)
	}

	return &UserRepository{
		conn:       conn,
		collection: coll,
		now:        time.Now,
	}, nil
}

func (r *UserRepository) Insert(ctx context.Context, name, email string) (model.User, error) {
	doc := userDocument{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return doc.toModel()
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return doc.toModel()
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		user, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// Update is a single-document find-and-modify, so the unique index rejects a
// colliding email without ever exposing a half-written document.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, name, email string) (model.User, model.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	update := bson.M{"$set": bson.M{"name": name, "email": email}}

	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return model.User{}, model.User{}, model.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return model.User{}, model.User{}, model.ErrDuplicateEmail
		default:
			return model.User{}, model.User{}, fmt.Errorf("failed to update user: %w", err)
		}
	}

	before, err := doc.toModel()
	if err != nil {
		return model.User{}, model.User{}, err
	}
	after := before
	after.Name = name
	after.Email = email

	return before, after, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (model.User, error) {
	var doc userDocument
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to delete user: %w", err)
	}

	return doc.toModel()
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}
