// internal/app/features/materials/files.go
package materials

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	materialstore "github.com/learnitedu/learnit/internal/app/store/materials"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/app/system/uploads"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxFilesPerUpload = 10

// materialContentTypes is the set of MIME types accepted as teaching
// material.
var materialContentTypes = map[string]bool{
	"application/pdf":               true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// HandleUploadFiles adds up to maxFilesPerUpload files to a folder.
// Admin/educator only (route group).
// POST /api/materials/folders/{id}/files
func (h *Handler) HandleUploadFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	folderID, ok := h.folderID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload material files")
	defer cancel()

	if _, err := h.Materials.GetByID(ctx, folderID); err != nil {
		if errors.Is(err, materialstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Folder not found")
			return
		}
		h.ErrLog.Internal(w, r, "upload materials: fetch folder failed", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body,
		int64(maxFilesPerUpload)*limits.MaxMaterialUploadSize+limits.MultipartMemorySize)
	if err := r.ParseMultipartForm(limits.MultipartMemorySize); err != nil {
		h.ErrLog.BadRequest(w, r, "upload materials: bad multipart form", err, "Invalid upload")
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
		if !materialContentTypes[fh.Header.Get("Content-Type")] {
			respond.Message(w, http.StatusBadRequest, "Only PPT, PDF, Word, and Excel files are allowed")
			return
		}
		if fh.Size > limits.MaxMaterialUploadSize {
			respond.Message(w, http.StatusBadRequest,
				fmt.Sprintf("File too large. Maximum size: %d MB", limits.MaxMaterialUploadSize>>20))
			return
		}
	}

	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			h.ErrLog.Internal(w, r, "upload materials: open part failed", err)
			return
		}
		contentType := fh.Header.Get("Content-Type")
		stored, err := uploads.Save(ctx, h.Storage, "materials", fh.Filename, file, fh.Size, contentType)
		file.Close()
		if err != nil {
			h.ErrLog.Internal(w, r, "upload materials: store file failed", err)
			return
		}

		if _, err := h.Materials.AddFile(ctx, folderID, models.StoredFile{
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
			h.ErrLog.Internal(w, r, "upload materials: record file failed", err)
			return
		}
	}

	updated, err := h.Materials.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "upload materials: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, updated)
}

// HandleDeleteFile removes one file from a folder. Admin/educator only
// (route group).
// DELETE /api/materials/folders/{folderId}/files/{fileId}
func (h *Handler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	folderID, ok := h.folderID(w, r, "folderId")
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete material file")
	defer cancel()

	f, err := h.Materials.GetByID(ctx, folderID)
	if errors.Is(err, materialstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Folder not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "delete material file: fetch folder failed", err)
		return
	}

	file, found := f.FileByID(fileID)
	if !found {
		h.ErrLog.NotFound(w, r, "File not found")
		return
	}

	if err := h.Storage.Delete(ctx, file.Path); err != nil {
		h.Log.Warn("material blob delete failed",
			zap.Error(err), zap.String("path", file.Path))
	}
	if err := h.Materials.RemoveFile(ctx, folderID, fileID); err != nil {
		h.ErrLog.Internal(w, r, "delete material file failed", err)
		return
	}

	updated, err := h.Materials.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "delete material file: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "File deleted",
		"folder":  updated,
	})
}
