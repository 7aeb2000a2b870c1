// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"errors"

	"github.com/learnitedu/learnit/internal/app/system/auth"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher, loading fresh user data on each
// authenticated request so role changes and deletions take effect
// immediately.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves a user by ID hex. ok is false when the hex is
// malformed or the account no longer exists.
func (f *Fetcher) FetchUser(ctx context.Context, idHex string) (auth.User, bool, error) {
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return auth.User{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"username":  1,
		"email":     1,
		"full_name": 1,
		"role":      1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.User{}, false, nil
		}
		return auth.User{}, false, err
	}

	return auth.User{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}, true, nil
}
