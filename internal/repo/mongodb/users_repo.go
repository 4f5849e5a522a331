package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/geocoder89/usersapi/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionName = "users"
	emailIndexName = "email_unique"
	createdAtField = "createdAt"
	updatedAtField = "updatedAt"
)

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Age           *int               `bson:"age,omitempty"`
	FavoriteFoods []string           `bson:"favoriteFoods"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d userDoc) toUser() user.User {
	foods := d.FavoriteFoods
	if foods == nil {
		foods = []string{}
	}

	return user.User{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		Age:           d.Age,
		FavoriteFoods: foods,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// UsersRepo stores users as documents in a single collection with a unique
// index on email.
type UsersRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	prom   *observability.Prom
	now    func() time.Time
}

func NewUsersRepo(client *mongo.Client, dbName string, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		client: client,
		coll:   client.Database(dbName).Collection(CollectionName),
		prom:   prom,
		now:    now,
	}
}

// BSON dates have millisecond precision; truncating keeps the returned value
// equal to what is read back later.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *UsersRepo) EnsureIndexes(ctx context.Context) error {
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return fmt.Errorf("ensure users indexes: %w", mapErr(err))
	}
	return nil
}

func (repo *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := repo.observe("users.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: createdAtField, Value: 1}, {Key: "_id", Value: 1}})

		cur, err := repo.coll.Find(ctx, bson.D{}, opts)
		if err != nil {
			return mapErr(err)
		}
		defer cur.Close(ctx)

		var docs []userDoc
		if err := cur.All(ctx, &docs); err != nil {
			return mapErr(err)
		}

		out = make([]user.User, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.toUser())
		}
		return nil
	})

	return out, err
}

func (repo *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var d userDoc
	err = repo.observe("users.get", func() error {
		return mapErr(repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d))
	})
	if err != nil {
		return user.User{}, err
	}

	return d.toUser(), nil
}

func (repo *UsersRepo) Insert(ctx context.Context, c user.Candidate) (user.User, error) {
	ts := repo.now()
	d := userDoc{
		ID:            primitive.NewObjectID(),
		Name:          c.Name,
		Email:         c.Email,
		Age:           c.Age,
		FavoriteFoods: c.FavoriteFoods,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if d.FavoriteFoods == nil {
		d.FavoriteFoods = []string{}
	}

	err := repo.observe("users.insert", func() error {
		_, err := repo.coll.InsertOne(ctx, d)
		return mapErr(err)
	})
	if err != nil {
		return user.User{}, err
	}

	return d.toUser(), nil
}

func (repo *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	set := setDocument(p, repo.now())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d userDoc
	err = repo.observe("users.update", func() error {
		return mapErr(repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&d))
	})
	if err != nil {
		return user.User{}, err
	}

	return d.toUser(), nil
}

func (repo *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var d userDoc
	err = repo.observe("users.delete", func() error {
		return mapErr(repo.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d))
	})
	if err != nil {
		return user.User{}, err
	}

	return d.toUser(), nil
}

func (repo *UsersRepo) Ping(ctx context.Context) error {
	return mapErr(repo.client.Ping(ctx, readpref.Primary()))
}

func (repo *UsersRepo) Close(ctx context.Context) error {
	return repo.client.Disconnect(ctx)
}

// setDocument builds the $set body for a patch; updatedAt is always refreshed.
func setDocument(p user.Patch, ts time.Time) bson.M {
	set := bson.M{updatedAtField: ts}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.FavoriteFoods != nil {
		set["favoriteFoods"] = append([]string{}, (*p.FavoriteFoods)...)
	}

	return set
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return user.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", user.ErrDuplicateKey, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", user.ErrStoreUnavailable, err)
	default:
		return err
	}
}
