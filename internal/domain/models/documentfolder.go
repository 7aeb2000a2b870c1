// internal/domain/models/documentfolder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentFolder is a per-user workspace of uploaded files. Only the
// creating user may add to, remove from, or delete the folder; all signed-in
// users can browse active folders.
type DocumentFolder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description"`
	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"createdBy"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	Files       []StoredFile       `bson:"files,omitempty" json:"files"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FileByID returns the stored file with the given id, if present.
func (d *DocumentFolder) FileByID(id primitive.ObjectID) (StoredFile, bool) {
	for _, f := range d.Files {
		if f.ID == id {
			return f, true
		}
	}
	return StoredFile{}, false
}
