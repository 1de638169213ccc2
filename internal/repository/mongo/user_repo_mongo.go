package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
)

const usersCollection = "users"

type UserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewUserRepo(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(usersCollection), now: time.Now}
}

// userDocument is the stored shape of a user. The reset token lives in a
// single sub-document so its hash and expiry are set and unset together.
type userDocument struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password_hash"`
	ResetToken   *resetDocument `bson:"reset_token,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

type resetDocument struct {
	TokenHash string    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.ResetToken != nil {
		user.Reset = &domain.ResetToken{TokenHash: d.ResetToken.TokenHash, ExpiresAt: d.ResetToken.ExpiresAt}
	}
	return user, nil
}

// EnsureIndexes creates the unique email index and the reset token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "reset_token.token_hash", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token_hash"),
		},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	now := r.now().UTC()
	doc := userDocument{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicateEmail
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uuid.UUID, reset domain.ResetToken) error {
	res, err := r.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID.String()}}, setResetUpdate(reset, r.now()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	filter := bson.D{
		{Key: "_id", Value: userID.String()},
		{Key: "reset_token.token_hash", Value: tokenHash},
	}
	_, err := r.users.UpdateOne(ctx, filter, clearResetUpdate(r.now()))
	return err
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, liveResetFilter(tokenHash, now))
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: passwordHash},
			{Key: "updated_at", Value: r.now().UTC()},
		}},
		{Key: "$unset", Value: bson.D{{Key: "reset_token", Value: ""}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, liveResetFilter(tokenHash, now), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func liveResetFilter(tokenHash string, now time.Time) bson.D {
	return bson.D{
		{Key: "reset_token.token_hash", Value: tokenHash},
		{Key: "reset_token.expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}
}

// setResetUpdate touches only the reset sub-document and the timestamp.
func setResetUpdate(reset domain.ResetToken, now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "reset_token", Value: resetDocument{TokenHash: reset.TokenHash, ExpiresAt: reset.ExpiresAt.UTC()}},
		{Key: "updated_at", Value: now.UTC()},
	}}}
}

func clearResetUpdate(now time.Time) bson.D {
	return bson.D{
		{Key: "$unset", Value: bson.D{{Key: "reset_token", Value: ""}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now.UTC()}}},
	}
}
