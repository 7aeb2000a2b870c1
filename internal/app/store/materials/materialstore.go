// internal/app/store/materials/materialstore.go
package materialstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages shared material folders. Unlike document folders these are
// not scoped to an owner on read; any signed-in user can browse them.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("material folder not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("material_folders")}
}

func (s *Store) Create(ctx context.Context, f models.MaterialFolder) (models.MaterialFolder, error) {
	if strings.TrimSpace(f.Title) == "" {
		return models.MaterialFolder{}, mongo.CommandError{Message: "title is required"}
	}

	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.Files = nil
	f.CreatedAt = now
	f.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.MaterialFolder{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.MaterialFolder, error) {
	var f models.MaterialFolder
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MaterialFolder{}, ErrNotFound
	}
	if err != nil {
		return models.MaterialFolder{}, err
	}
	return f, nil
}

// List returns all material folders, newest first.
func (s *Store) List(ctx context.Context) ([]models.MaterialFolder, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MaterialFolder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, title, description string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(title) != "" {
		set["title"] = title
	}
	set["description"] = description

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a folder by ID. Returns the number deleted (0 or 1).
// Callers are responsible for removing the stored file blobs first.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) AddFile(ctx context.Context, id primitive.ObjectID, file models.StoredFile) (models.StoredFile, error) {
	file.ID = primitive.NewObjectID()
	file.UploadedAt = time.Now().UTC()

	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"files": file},
		"$set":  bson.M{"updated_at": file.UploadedAt},
	})
	if err != nil {
		return models.StoredFile{}, err
	}
	if res.MatchedCount == 0 {
		return models.StoredFile{}, ErrNotFound
	}
	return file, nil
}

func (s *Store) RemoveFile(ctx context.Context, id, fileID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"files": bson.M{"_id": fileID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
