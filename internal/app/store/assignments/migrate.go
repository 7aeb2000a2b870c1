// internal/app/store/assignments/migrate.go
package assignmentstore

import (
	"context"

	"github.com/learnitedu/learnit/internal/app/system/hosturl"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// MigrateFileURLs permanently rewrites stored submission file URLs onto
// base. The read path already rewrites on the way out, so this is an
// explicit operator action (run from the CLI) for retiring a stale host
// from the stored data itself. Returns the number of submissions updated.
func (s *Store) MigrateFileURLs(ctx context.Context, base string, log *zap.Logger) (int64, error) {
	cur, err := s.c.Find(ctx, bson.M{"submissions.0": bson.M{"$exists": true}})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var updated int64
	for cur.Next(ctx) {
		var a models.Assignment
		if err := cur.Decode(&a); err != nil {
			return updated, err
		}

		changed := false
		for i := range a.Submissions {
			rewritten := hosturl.Rewrite(a.Submissions[i].FileURL, base)
			if rewritten != a.Submissions[i].FileURL {
				a.Submissions[i].FileURL = rewritten
				changed = true
				updated++
			}
		}
		if !changed {
			continue
		}

		if _, err := s.c.UpdateByID(ctx, a.ID, bson.M{"$set": bson.M{"submissions": a.Submissions}}); err != nil {
			return updated, err
		}
		log.Info("migrated submission file urls",
			zap.String("assignment_id", a.ID.Hex()),
			zap.String("title", a.Title))
	}
	return updated, cur.Err()
}
