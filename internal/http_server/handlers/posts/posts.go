// Package posts serves the REST surface of the feed: list, read, create,
// update and delete. Mutations require an authenticated identity; update and
// delete additionally require ownership of the post.
package posts

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"feed_service/internal/files"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/middleware/authgate"
	"feed_service/internal/models"

	"github.com/go-chi/render"
)

const maxUploadMemory = 10 << 20

type PostRequest struct {
	Title   string `validate:"required,min=5"`
	Content string `validate:"required,min=5"`
}

type PostResponse struct {
	resp.Response
	Post models.Post `json:"post"`
}

type ListResponse struct {
	resp.Response
	Posts      []models.Post `json:"posts"`
	TotalItems int64         `json:"totalItems"`
}

// authenticated enforces the handler side of the permissive-gate contract:
// the gate never rejected, so endpoints that need identity answer 401 here.
func authenticated(w http.ResponseWriter, r *http.Request) (authgate.Context, bool) {
	ac := authgate.FromContext(r.Context())
	if !ac.IsAuthenticated {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(http.StatusUnauthorized, "Not authenticated!"))

		return ac, false
	}

	return ac, true
}

// formImage pulls the uploaded image out of the multipart form. A missing
// file and a file with a disallowed content type look the same to callers:
// no image attached.
func formImage(r *http.Request) (multipart.File, string, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", false
	}

	if !files.Allowed(header.Header.Get("Content-Type")) {
		file.Close()
		return nil, "", false
	}

	return file, header.Filename, true
}

// saveImage stores the upload and returns its path. Callers that fail after
// this point remove the file again so aborted mutations leave no files.
func saveImage(log *slog.Logger, store *files.Store, file multipart.File, name string) (string, bool) {
	defer file.Close()

	path, err := store.Save(file, name)
	if err != nil {
		log.Error("failed to store image", sl.Err(err))
		return "", false
	}

	return path, true
}

func discardImage(log *slog.Logger, store *files.Store, path string) {
	if err := store.Remove(path); err != nil {
		log.Warn("failed to remove stored image", slog.String("path", path), sl.Err(err))
	}
}
