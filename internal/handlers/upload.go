package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/storage"
)

const multipartMemory = 10 << 20

// readUpload reads the "file" part of a multipart form of at most maxBytes.
// The returned close func must be called once the upload has been stored.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (services.MediaUpload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+storage.MB)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		logger.Log.WithError(err).Warn("Failed to parse multipart form")
		writeError(w, http.StatusBadRequest, "Arquivo muito grande ou formato inválido.")
		return services.MediaUpload{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Arquivo ausente na requisição.")
		return services.MediaUpload{}, nil, false
	}

	closeFn := func() {
		file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return uploadFrom(file, header), closeFn, true
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) services.MediaUpload {
	return services.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
