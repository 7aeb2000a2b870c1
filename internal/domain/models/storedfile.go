// internal/domain/models/storedfile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoredFile is an uploaded file owned by a parent folder (document or
// material folder). It has no lifecycle of its own: deleting the folder
// deletes its files.
type StoredFile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalName string             `bson:"original_name" json:"originalName"`
	ContentType  string             `bson:"content_type" json:"mimeType"`
	Size         int64              `bson:"size" json:"size"`
	Path         string             `bson:"path" json:"-"` // storage path (local or S3 key)
	URL          string             `bson:"url" json:"url"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploadedAt"`
	UploadedByID primitive.ObjectID `bson:"uploaded_by_id" json:"uploadedBy"`
}
