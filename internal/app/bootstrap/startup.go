// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	"github.com/gorilla/securecookie"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdminUser(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	}
	return nil
}

// ensureAdminUser promotes the configured account to admin, creating it
// first if it does not exist. A created account gets an unguessable random
// password; its owner signs in through Google or has the password reset by
// another admin.
func ensureAdminUser(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == authz.RoleAdmin.String() {
			return nil
		}
		if err := users.Update(ctx, u.ID, models.User{Role: authz.RoleAdmin.String()}, ""); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin", zap.String("email", email))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		username := email
		if at := strings.Index(email, "@"); at > 0 {
			username = email[:at]
		}
		password := hex.EncodeToString(securecookie.GenerateRandomKey(32))
		if _, err := users.Create(ctx, models.User{
			Username: username,
			Email:    email,
			FullName: "Administrator",
			Role:     authz.RoleAdmin.String(),
		}, password); err != nil {
			return err
		}
		logger.Info("created admin user", zap.String("email", email))
		return nil

	default:
		return err
	}
}
