// internal/app/features/documents/files.go
package documents

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/app/system/uploads"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxFilesPerUpload bounds one multipart request, not the folder.
const maxFilesPerUpload = 10

// documentExtensions is the set of file types accepted into document
// folders.
var documentExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true,
	".ppt": true, ".pptx": true, ".txt": true,
}

// HandleUploadFiles adds up to maxFilesPerUpload files to a folder. Owner
// only.
// POST /api/documents/{id}/files
func (h *Handler) HandleUploadFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload document files")
	defer cancel()

	if _, ok := h.ownedFolder(w, r, id, folderID); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body,
		int64(maxFilesPerUpload)*limits.MaxDocumentUploadSize+limits.MultipartMemorySize)
	if err := r.ParseMultipartForm(limits.MultipartMemorySize); err != nil {
		h.ErrLog.BadRequest(w, r, "upload documents: bad multipart form", err, "Invalid upload")
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		respond.Message(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) > maxFilesPerUpload {
		respond.Message(w, http.StatusBadRequest,
			fmt.Sprintf("At most %d files per upload", maxFilesPerUpload))
		return
	}

	for _, fh := range headers {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !documentExtensions[ext] {
			respond.Message(w, http.StatusBadRequest, "Only documents and images are allowed")
			return
		}
		if fh.Size > limits.MaxDocumentUploadSize {
			respond.Message(w, http.StatusBadRequest,
				fmt.Sprintf("File too large. Maximum size: %d MB", limits.MaxDocumentUploadSize>>20))
			return
		}
	}

	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			h.ErrLog.Internal(w, r, "upload documents: open part failed", err)
			return
		}
		contentType := fh.Header.Get("Content-Type")
		stored, err := uploads.Save(ctx, h.Storage, "documents", fh.Filename, file, fh.Size, contentType)
		file.Close()
		if err != nil {
			h.ErrLog.Internal(w, r, "upload documents: store file failed", err)
			return
		}

		if _, err := h.Documents.AddFile(ctx, folderID, models.StoredFile{
			OriginalName: fh.Filename,
			ContentType:  contentType,
			Size:         fh.Size,
			Path:         stored.Path,
			URL:          h.Storage.URL(stored.Path),
			UploadedByID: id.ID,
		}); err != nil {
			if delErr := h.Storage.Delete(ctx, stored.Path); delErr != nil {
				h.Log.Warn("orphaned upload cleanup failed",
					zap.Error(delErr), zap.String("path", stored.Path))
			}
			h.ErrLog.Internal(w, r, "upload documents: record file failed", err)
			return
		}
	}

	updated, err := h.Documents.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "upload documents: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDeleteFile removes one file from a folder. Owner only.
// DELETE /api/documents/{id}/files/{fileId}
func (h *Handler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete document file")
	defer cancel()

	f, ok := h.ownedFolder(w, r, id, folderID)
	if !ok {
		return
	}
	file, found := f.FileByID(fileID)
	if !found {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	if err := h.Storage.Delete(ctx, file.Path); err != nil {
		h.Log.Warn("document blob delete failed",
			zap.Error(err), zap.String("path", file.Path))
	}
	if err := h.Documents.RemoveFile(ctx, folderID, fileID); err != nil {
		h.ErrLog.Internal(w, r, "delete document file failed", err)
		return
	}

	updated, err := h.Documents.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "delete document file: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDownloadFile serves one file. Local storage is served straight off
// disk; anything else gets a short-lived signed URL redirect.
// GET /api/documents/{id}/files/{fileId}/download
func (h *Handler) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "download document file")
	defer cancel()

	f, err := h.Documents.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.NotFound(w, r, "Document not found")
		return
	}
	file, found := f.FileByID(fileID)
	if !found {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	disposition := fmt.Sprintf("attachment; filename=%q", uploads.SanitizeFilename(file.OriginalName))

	if local, isLocal := h.Storage.(*storage.Local); isLocal {
		fullPath, err := local.GetFullPath(file.Path)
		if err != nil {
			h.ErrLog.Internal(w, r, "download: resolve local path failed", err)
			return
		}
		w.Header().Set("Content-Disposition", disposition)
		http.ServeFile(w, r, fullPath)
		return
	}

	signed, err := h.Storage.PresignedURL(ctx, file.Path, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: disposition,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "download: presign failed", err)
		return
	}
	http.Redirect(w, r, signed, http.StatusTemporaryRedirect)
}
