package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/khaledhikmat/vision-gateway/model"
)

const maxUploadMemory = 32 << 20

var allowedVideoTypes = map[string]bool{
	"video/mp4":                true,
	"video/quicktime":          true,
	"video/x-msvideo":          true,
	"video/x-matroska":         true,
	"application/octet-stream": true,
}

func handleUpload(svcs ServicesFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			sendError(w, model.BadRequest(fmt.Sprintf("invalid multipart body: %v", err)))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			sendError(w, model.BadRequest("missing form file 'file'"))
			return
		}
		defer file.Close()

		contentType := strings.ToLower(header.Header.Get("Content-Type"))
		if contentType != "" && !allowedVideoTypes[contentType] {
			sendError(w, model.Unprocessable(fmt.Sprintf("unsupported content type %q", contentType)))
			return
		}

		relPath, size, err := svcs.StorageSvc.StoreFile(header.Filename, file)
		if err != nil {
			procError(svcs, model.GenError("upload_handler", err, map[string]interface{}{"filename": header.Filename}, "error storing upload"))
			sendError(w, model.Internal(err.Error()))
			return
		}

		rec := model.UploadRecord{
			ID:       uuid.NewString(),
			Path:     relPath,
			Filename: header.Filename,
			Size:     size,
		}
		if err := svcs.DataSvc.NewUpload(rec); err != nil {
			procError(svcs, model.GenError("upload_handler", err, map[string]interface{}{"filename": header.Filename}, "error recording upload"))
			sendError(w, model.Internal(err.Error()))
			return
		}

		sendJSON(w, http.StatusOK, model.UploadResponse{
			ID:       rec.ID,
			Filename: rec.Filename,
			Path:     rec.Path,
			Size:     rec.Size,
		})
	}
}
