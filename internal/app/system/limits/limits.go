// internal/app/system/limits/limits.go
package limits

// Request body size limits for the upload-bearing features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize caps plain JSON request bodies (auth, notes, grading).
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxDocumentUploadSize caps files added to personal document folders.
	MaxDocumentUploadSize = 10 << 20 // 10 MB

	// MaxMaterialUploadSize caps course material uploads. Materials are
	// admin/educator only, so the ceiling is higher than for student documents.
	MaxMaterialUploadSize = 50 << 20 // 50 MB

	// MultipartMemorySize is the in-memory portion passed to
	// ParseMultipartForm; the remainder spools to disk.
	MultipartMemorySize = 8 << 20 // 8 MB
)

// AssignmentUploadSize converts an assignment's configured per-file limit
// (stored in whole megabytes) to bytes.
func AssignmentUploadSize(maxMB int) int64 {
	if maxMB <= 0 {
		return MaxDocumentUploadSize
	}
	return int64(maxMB) << 20
}
