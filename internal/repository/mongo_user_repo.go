package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"cookie-auth/internal/model"
)

const usersCollection = "users"

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d mongoUser) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         model.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoUserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoUserRepository(client *mongo.Client, db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{client: client, users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index that backs the uniqueness guarantee.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, model.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "find user by id")
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, bson.M{"email": model.NormalizeEmail(email)}, "find user by email")
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, op string) (model.User, error) {
	var doc mongoUser
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Email:        model.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, model.ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) UpdateRole(ctx context.Context, id string, role model.Role) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrUserNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"role": string(role), "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
