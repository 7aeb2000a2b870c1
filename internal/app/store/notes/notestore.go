// internal/app/store/notes/notestore.go
package notestore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("note not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notes")}
}

// Create inserts a new note owned by its AuthorID.
func (s *Store) Create(ctx context.Context, n models.Note) (models.Note, error) {
	if strings.TrimSpace(n.Title) == "" {
		return models.Note{}, mongo.CommandError{Message: "title is required"}
	}

	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.ViewCount = 0
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error) {
	var n models.Note
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Filter narrows a note listing. Zero values mean "no constraint".
type Filter struct {
	CourseID *primitive.ObjectID
	Search   string // case-insensitive substring over title and content
	Tags     []string
}

// ListVisible returns the notes the caller may at least view, newest first:
// everything for admins, otherwise own notes plus public notes plus notes
// granting the caller access.
func (s *Store) ListVisible(ctx context.Context, id authz.Identity, f Filter) ([]models.Note, error) {
	filter := bson.M{}
	if !id.IsAdmin() {
		filter["$or"] = []bson.M{
			{"author_id": id.ID},
			{"is_public": true},
			{"access_list.user_id": id.ID},
		}
	}
	if f.CourseID != nil {
		filter["course_id"] = *f.CourseID
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		// $and keeps the search disjunction from clobbering the visibility $or.
		filter["$and"] = []bson.M{{"$or": []bson.M{
			{"title": rx},
			{"content": rx},
		}}}
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Note
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountPublic returns how many notes are publicly visible.
func (s *Store) CountPublic(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_public": true})
}

// Update modifies mutable note fields and refreshes UpdatedAt. Visibility
// (is_public) is always written since false is a meaningful value.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, mut models.Note) error {
	set := bson.M{
		"is_public":  mut.IsPublic,
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(mut.Title) != "" {
		set["title"] = mut.Title
	}
	if mut.Content != "" {
		set["content"] = mut.Content
	}
	if mut.Tags != nil {
		set["tags"] = mut.Tags
	}
	if mut.CourseID != nil {
		set["course_id"] = mut.CourseID
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncViewCount bumps the view counter by one. Called on each permitted read.
func (s *Store) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"view_count": 1}})
	return err
}

// SetGrant adds or replaces userID's entry in the access list. At most one
// grant per user is kept: an existing entry is updated in place.
func (s *Store) SetGrant(ctx context.Context, noteID primitive.ObjectID, grant models.AccessGrant) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": noteID, "access_list.user_id": grant.UserID},
		bson.M{"$set": bson.M{
			"access_list.$.access_type": grant.AccessType,
			"access_list.$.granted_at":  grant.GrantedAt,
			"updated_at":                time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No existing grant for this user; append one. The student-absent guard
	// in the filter keeps a concurrent SetGrant from inserting twice.
	res, err = s.c.UpdateOne(ctx,
		bson.M{"_id": noteID, "access_list.user_id": bson.M{"$ne": grant.UserID}},
		bson.M{
			"$push": bson.M{"access_list": grant},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the note is gone or another request inserted the grant
		// between our two updates; retry the in-place set to be sure.
		res, err = s.c.UpdateOne(ctx,
			bson.M{"_id": noteID, "access_list.user_id": grant.UserID},
			bson.M{"$set": bson.M{
				"access_list.$.access_type": grant.AccessType,
				"access_list.$.granted_at":  grant.GrantedAt,
			}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// RevokeGrant removes userID's entry from the access list.
func (s *Store) RevokeGrant(ctx context.Context, noteID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, noteID, bson.M{
		"$pull": bson.M{"access_list": bson.M{"user_id": userID}},
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

// AddComment appends a comment to the note.
func (s *Store) AddComment(ctx context.Context, noteID primitive.ObjectID, c models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now

	res, err := s.c.UpdateByID(ctx, noteID, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		return models.Comment{}, ErrNotFound
	}
	return c, nil
}

// UpdateComment rewrites a comment's content in place.
func (s *Store) UpdateComment(ctx context.Context, noteID, commentID primitive.ObjectID, content string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": noteID, "comments._id": commentID},
		bson.M{"$set": bson.M{
			"comments.$.content":    content,
			"comments.$.updated_at": now,
			"updated_at":            now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveComment deletes a comment from the note.
func (s *Store) RemoveComment(ctx context.Context, noteID, commentID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, noteID, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
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
