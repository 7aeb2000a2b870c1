// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	assignmentsfeature "github.com/learnitedu/learnit/internal/app/features/assignments"
	authgooglefeature "github.com/learnitedu/learnit/internal/app/features/authgoogle"
	coursesfeature "github.com/learnitedu/learnit/internal/app/features/courses"
	documentsfeature "github.com/learnitedu/learnit/internal/app/features/documents"
	healthfeature "github.com/learnitedu/learnit/internal/app/features/health"
	loginfeature "github.com/learnitedu/learnit/internal/app/features/login"
	materialsfeature "github.com/learnitedu/learnit/internal/app/features/materials"
	notesfeature "github.com/learnitedu/learnit/internal/app/features/notes"
	quizfeature "github.com/learnitedu/learnit/internal/app/features/quizsubmissions"
	usersfeature "github.com/learnitedu/learnit/internal/app/features/users"
	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	coursestore "github.com/learnitedu/learnit/internal/app/store/courses"
	documentstore "github.com/learnitedu/learnit/internal/app/store/documents"
	materialstore "github.com/learnitedu/learnit/internal/app/store/materials"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	"github.com/learnitedu/learnit/internal/app/store/oauthstate"
	quizresultstore "github.com/learnitedu/learnit/internal/app/store/quizresults"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/auth"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router mounts one feature subrouter
// per API area under /api, plus the health check and static file serving.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	errLog := respond.NewErrorLogger(logger)

	users := userstore.New(db)
	notes := notestore.New(db)
	courses := coursestore.New(db)
	assignments := assignmentstore.New(db)
	documents := documentstore.New(db)
	materials := materialstore.New(db)
	quizResults := quizresultstore.New(db)

	r := chi.NewRouter()

	// The SPA runs on its own origin and sends the bearer token in the
	// Authorization header.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{appCfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Global auth middleware: resolves the bearer token into a context user.
	// The user is fetched fresh on every request so role changes and deleted
	// accounts take effect immediately.
	verifier := &auth.TokenVerifier{
		Secret:  appCfg.TokenSecret,
		Fetcher: userstore.NewFetcher(db),
		Log:     logger,
	}
	r.Use(verifier.LoadTokenUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, appCfg.TokenSecret, appCfg.TokenExpiry, errLog, logger)
	r.Mount("/api/auth", loginfeature.Routes(loginHandler))

	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(
			users,
			oauthstate.New(db),
			errLog,
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			appCfg.ClientURL,
			appCfg.TokenSecret,
			appCfg.TokenExpiry,
			logger,
		)
		r.Mount("/api/auth/google", authgooglefeature.Routes(googleHandler))
	} else {
		logger.Info("google sign-in disabled (no client id configured)")
	}

	// API features
	usersHandler := usersfeature.NewHandler(users, errLog, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	notesHandler := notesfeature.NewHandler(notes, users, courses, errLog, logger)
	r.Mount("/api/notes", notesfeature.Routes(notesHandler))

	coursesHandler := coursesfeature.NewHandler(courses, errLog, logger)
	r.Mount("/api/courses", coursesfeature.Routes(coursesHandler))

	assignmentsHandler := assignmentsfeature.NewHandler(assignments, deps.Storage, errLog, logger)
	r.Mount("/api/assignments", assignmentsfeature.Routes(assignmentsHandler))

	documentsHandler := documentsfeature.NewHandler(documents, deps.Storage, errLog, logger)
	r.Mount("/api/documents", documentsfeature.Routes(documentsHandler))

	materialsHandler := materialsfeature.NewHandler(materials, deps.Storage, errLog, logger)
	r.Mount("/api/materials", materialsfeature.Routes(materialsHandler))

	quizHandler := quizfeature.NewHandler(quizResults, errLog, logger)
	r.Mount("/api/quiz-submissions", quizfeature.Routes(quizHandler))

	// Uploaded files, when stored on local disk. S3-backed deployments serve
	// file URLs straight from the bucket.
	if appCfg.StorageType == "local" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Built SPA, served with pre-compressed file support (gzip/brotli).
	if appCfg.SPAStaticDir != "" {
		r.Handle("/*", fileserver.Handler("/", appCfg.SPAStaticDir))
	}

	return r, nil
}
