// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicate   = errors.New("a user with this email or username already exists")
	ErrNotFound    = errors.New("user not found")
	ErrBadPassword = errors.New("invalid credentials")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user, hashing the plaintext password. Email and
// username are stored trimmed, email lowercased.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	if u.Email == "" || u.Username == "" {
		return models.User{}, mongo.CommandError{Message: "email and username are required"}
	}
	if u.Role == "" {
		u.Role = "student"
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		u.Password = string(hash)
	}

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate verifies email + password and returns the matching user.
// OAuth-only accounts (no stored hash) never match a password.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if u.Password == "" {
		return models.User{}, ErrBadPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return models.User{}, ErrBadPassword
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByGoogleID looks up a user previously linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// LinkGoogleID attaches a Google subject ID to an existing account.
func (s *Store) LinkGoogleID(ctx context.Context, id primitive.ObjectID, googleID string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"google_id":  googleID,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Update applies a selective field update and refreshes UpdatedAt.
// A non-empty password is re-hashed; empty leaves the stored hash alone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, mut models.User, password string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(mut.Username) != "" {
		set["username"] = strings.TrimSpace(mut.Username)
	}
	if strings.TrimSpace(mut.Email) != "" {
		set["email"] = strings.ToLower(strings.TrimSpace(mut.Email))
	}
	if strings.TrimSpace(mut.FullName) != "" {
		set["full_name"] = strings.TrimSpace(mut.FullName)
	}
	if mut.Role != "" {
		set["role"] = mut.Role
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		set["password"] = string(hash)
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns users matching the optional role filter, newest first.
func (s *Store) List(ctx context.Context, role string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the newest accounts, a light projection for dashboards.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"username": 1, "full_name": 1, "role": 1, "created_at": 1})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats holds per-role user counts for the admin dashboard.
type Stats struct {
	Total     int64 `json:"total"`
	Admins    int64 `json:"admins"`
	Educators int64 `json:"educators"`
	Students  int64 `json:"students"`
}

// CountByRole aggregates user totals per role.
func (s *Store) CountByRole(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Total, err = s.c.CountDocuments(ctx, bson.M{}); err != nil {
		return Stats{}, err
	}
	if st.Admins, err = s.c.CountDocuments(ctx, bson.M{"role": "admin"}); err != nil {
		return Stats{}, err
	}
	if st.Educators, err = s.c.CountDocuments(ctx, bson.M{"role": "educator"}); err != nil {
		return Stats{}, err
	}
	if st.Students, err = s.c.CountDocuments(ctx, bson.M{"role": "student"}); err != nil {
		return Stats{}, err
	}
	return st, nil
}
