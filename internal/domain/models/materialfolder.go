// internal/domain/models/materialfolder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaterialFolder holds shared teaching materials (slides, handouts,
// spreadsheets). Admins and educators manage folders; every signed-in user
// can browse them.
type MaterialFolder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description"`
	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"createdBy"`
	Files       []StoredFile       `bson:"files,omitempty" json:"files"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FileByID returns the stored file with the given id, if present.
func (m *MaterialFolder) FileByID(id primitive.ObjectID) (StoredFile, bool) {
	for _, f := range m.Files {
		if f.ID == id {
			return f, true
		}
	}
	return StoredFile{}, false
}
