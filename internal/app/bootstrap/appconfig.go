// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and connection timeouts. AppConfig is where
// everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer-token auth
	TokenSecret string        // HS256 signing secret (must be strong in production)
	TokenExpiry time.Duration // Token lifetime (default 168h)

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/uploads")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "learnit/")

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is this API's external URL, used for the OAuth callback.
	BaseURL string // e.g., "https://learnit.example.com"
	// ClientURL is the SPA origin, used for CORS and post-auth redirects.
	ClientURL string // e.g., "https://app.learnit.example.com"

	// SPAStaticDir is the built SPA directory served at /; blank disables it.
	SPAStaticDir string

	// AdminEmail bootstraps an admin account on startup when set.
	AdminEmail string
}
