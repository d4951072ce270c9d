package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	doc := toUserDocument(user)
	doc.Email = strings.ToLower(doc.Email)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	byID := make(map[string]userDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id.String()]
		if !ok {
			continue
		}
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateFriends writes a then b. Standalone servers have no multi-document
// transactions, so a failed second write restores a's previous list.
func (r *userRepository) UpdateFriends(ctx context.Context, a, b *domain.User) error {
	now := time.Now().UTC()

	var before userDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": a.ID.String()},
		bson.M{"$set": bson.M{"friends": idStrings(a.Friends), "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return notFound(err)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": b.ID.String()},
		bson.M{"$set": bson.M{"friends": idStrings(b.Friends), "updatedAt": now}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = domain.ErrRecordNotFound
	}
	if err != nil {
		_, rbErr := r.coll.UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": before.ID},
			bson.M{"$set": bson.M{"friends": before.Friends, "updatedAt": before.UpdatedAt}},
		)
		if rbErr != nil {
			return fmt.Errorf("update friends: %w (restore failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain()
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrRecordNotFound
	}
	return err
}
