// Package postimage handles the upload side-channel used by the GraphQL
// surface: the client stores the image here first and passes the returned
// path into createPost/updatePost.
package postimage

import (
	"log/slog"
	"net/http"

	"feed_service/internal/files"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/middleware/authgate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const maxUploadMemory = 10 << 20

type Response struct {
	resp.Response
	FilePath string `json:"filePath"`
}

func New(
	log *slog.Logger,
	images *files.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.postimage.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ac := authgate.FromContext(r.Context())
		if !ac.IsAuthenticated {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error(http.StatusUnauthorized, "Not authenticated!"))

			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			log.Error("Failed to parse multipart form", sl.Err(err))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.Error(http.StatusUnprocessableEntity, "Failed to decode request"))

			return
		}

		file, header, err := r.FormFile("image")
		if err != nil || !files.Allowed(header.Header.Get("Content-Type")) {
			if file != nil {
				file.Close()
			}

			render.JSON(w, r, resp.OK("No file provided!"))

			return
		}
		defer file.Close()

		path, err := images.Save(file, header.Filename)
		if err != nil {
			log.Error("failed to store image", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		// Replacing an image: the client sends the path of the one being
		// swapped out. It goes only after the replacement is on disk, and
		// removal is awaited but never fails the upload.
		if oldPath := r.FormValue("oldPath"); oldPath != "" {
			if err := images.Remove(oldPath); err != nil {
				log.Warn("failed to remove old image", slog.String("path", oldPath), sl.Err(err))
			}
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.Created("File stored."),
			FilePath: path,
		})
	}
}
