package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

const profileCollection = "profiles"

var _ ports.ProfileStore = (*ProfileStore)(nil)

// ProfileStore is the MongoDB implementation of the profile backend. Writes
// run inside multi-document session transactions so the coordinator can pair
// them with credential-store transactions. The collection needs a unique
// index on email.
type ProfileStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewProfileStore(db *mongo.Database) *ProfileStore {
	return &ProfileStore{client: db.Client(), coll: db.Collection(profileCollection)}
}

type profileDoc struct {
	ID           string    `bson:"_id"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	IsDeleted    bool      `bson:"is_deleted"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *profileDoc) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:           d.ID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		IsDeleted:    d.IsDeleted,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (s *ProfileStore) findOne(ctx context.Context, filter bson.M) (*domain.Profile, error) {
	var doc profileDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, mapProfileError("find profile", err)
	}
	return doc.toDomain(), nil
}

func (s *ProfileStore) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.findOne(ctx, bson.M{"_id": id, "is_deleted": false})
}

func (s *ProfileStore) FindByIDAny(ctx context.Context, id string) (*domain.Profile, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// List returns non-deleted profiles, optionally narrowed by a partial email
// match or a free-text query over names and email.
func (s *ProfileStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Profile, error) {
	query := bson.M{"is_deleted": false}
	switch {
	case filter.Query != "":
		re := primitive.Regex{Pattern: filter.Query, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
			bson.M{"email": re},
		}
	case filter.Email != "":
		query["email"] = primitive.Regex{Pattern: filter.Email, Options: "i"}
	}

	cursor, err := s.coll.Find(ctx, query)
	if err != nil {
		return nil, mapProfileError("list profiles", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Profile
	for cursor.Next(ctx) {
		var doc profileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, mapProfileError("decode profile", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, mapProfileError("list profiles", err)
	}
	return out, nil
}

func (s *ProfileStore) Begin(ctx context.Context) (ports.ProfileTx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, mapProfileError("start session", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, mapProfileError("start transaction", err)
	}
	return &profileTx{
		sess: sess,
		sc:   mongo.NewSessionContext(ctx, sess),
		coll: s.coll,
	}, nil
}

// profileTx runs every write through the session context so the writes stay
// invisible until CommitTransaction.
type profileTx struct {
	sess mongo.Session
	sc   mongo.SessionContext
	coll *mongo.Collection
}

func (t *profileTx) Insert(_ context.Context, p *domain.Profile) error {
	doc := profileDoc{
		ID:           p.ID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		IsDeleted:    p.IsDeleted,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if _, err := t.coll.InsertOne(t.sc, doc); err != nil {
		return mapProfileError("insert profile", err)
	}
	return nil
}

func (t *profileTx) Update(_ context.Context, id, firstName, lastName, email string) error {
	return t.updateOne("update profile", id, bson.M{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
	})
}

func (t *profileTx) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return t.updateOne("update profile hash", id, bson.M{"password_hash": hash})
}

func (t *profileTx) SetDeleted(_ context.Context, id string, deleted bool) error {
	return t.updateOne("set profile deleted", id, bson.M{"is_deleted": deleted})
}

func (t *profileTx) Delete(_ context.Context, id string) error {
	if _, err := t.coll.DeleteOne(t.sc, bson.M{"_id": id}); err != nil {
		return mapProfileError("delete profile", err)
	}
	return nil
}

func (t *profileTx) updateOne(op, id string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := t.coll.UpdateOne(t.sc, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapProfileError(op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (t *profileTx) Commit(ctx context.Context) error {
	defer t.sess.EndSession(ctx)
	if err := t.sess.CommitTransaction(ctx); err != nil {
		return mapProfileError("commit profile tx", err)
	}
	return nil
}

func (t *profileTx) Rollback(ctx context.Context) error {
	defer t.sess.EndSession(ctx)
	if err := t.sess.AbortTransaction(ctx); err != nil {
		return mapProfileError("rollback profile tx", err)
	}
	return nil
}

func mapProfileError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
