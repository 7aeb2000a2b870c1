// internal/app/store/documents/documentstore.go
package documentstore

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

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("document folder not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("document_folders")}
}

// Create inserts a new folder owned by CreatedByID.
func (s *Store) Create(ctx context.Context, f models.DocumentFolder) (models.DocumentFolder, error) {
	if strings.TrimSpace(f.Title) == "" {
		return models.DocumentFolder{}, mongo.CommandError{Message: "title is required"}
	}

	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.Files = nil
	f.CreatedAt = now
	f.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.DocumentFolder{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DocumentFolder, error) {
	var f models.DocumentFolder
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DocumentFolder{}, ErrNotFound
	}
	if err != nil {
		return models.DocumentFolder{}, err
	}
	return f, nil
}

// List returns active folders, newest first. Pass the zero ObjectID for all
// users' folders; a concrete ID narrows to that owner.
func (s *Store) List(ctx context.Context, ownerID primitive.ObjectID) ([]models.DocumentFolder, error) {
	filter := bson.M{"is_active": true}
	if ownerID != primitive.NilObjectID {
		filter["created_by_id"] = ownerID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DocumentFolder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update renames or re-describes a folder.
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

// AddFile appends an uploaded file record to the folder.
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

// RemoveFile deletes one file record from the folder.
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
