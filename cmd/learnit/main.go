package main

import (
	"context"
	"log"
	"os"

	"github.com/dalemusser/waffle/app"
	"github.com/learnitedu/learnit/internal/app/bootstrap"
	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"go.uber.org/zap"
)

func main() {
	if hasMigrateFlag() {
		if err := migrateFileURLs(context.Background()); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

// hasMigrateFlag detects --migrate-file-urls and strips it so WAFFLE's flag
// parsing never sees it.
func hasMigrateFlag() bool {
	args := os.Args[:0:0]
	found := false
	for _, a := range os.Args {
		if a == "--migrate-file-urls" {
			found = true
			continue
		}
		args = append(args, a)
	}
	os.Args = args
	return found
}

// migrateFileURLs is the one-shot maintenance mode: it permanently rewrites
// stored submission file URLs onto the configured base URL and exits. Normal
// requests rewrite on the way out; this retires a stale host from the data
// itself.
func migrateFileURLs(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return err
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return err
	}

	deps, err := bootstrap.ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer deps.MongoClient.Disconnect(ctx)

	updated, err := assignmentstore.New(deps.MongoDatabase).MigrateFileURLs(ctx, appCfg.BaseURL, logger)
	if err != nil {
		return err
	}
	logger.Info("file url migration complete",
		zap.Int64("submissions_updated", updated),
		zap.String("base_url", appCfg.BaseURL))
	return nil
}
