package posts

import (
	"errors"
	"log/slog"
	"net/http"

	"feed_service/internal/auth"
	"feed_service/internal/feed"
	"feed_service/internal/files"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

func NewUpdate(
	log *slog.Logger,
	validate *validator.Validate,
	feedService *feed.Feed,
	images *files.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.NewUpdate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ac, ok := authenticated(w, r)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			log.Error("Failed to parse multipart form", sl.Err(err))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.Error(http.StatusUnprocessableEntity, "Failed to decode request"))

			return
		}

		req := PostRequest{
			Title:   r.FormValue("title"),
			Content: r.FormValue("content"),
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		// A replacement image is optional on update.
		imageURL := ""
		if file, name, ok := formImage(r); ok {
			imageURL, ok = saveImage(log, images, file, name)
			if !ok {
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

				return
			}
		}

		post, err := feedService.Update(r.Context(), ac.Identity, chi.URLParam(r, "id"), req.Title, req.Content, imageURL)
		if err != nil {
			// The update did not happen; drop the staged replacement so a
			// rejected mutation leaves no files behind.
			if imageURL != "" {
				discardImage(log, images, imageURL)
			}

			writeFeedError(w, r, log, err)

			return
		}

		render.JSON(w, r, PostResponse{
			Response: resp.OK("Post updated."),
			Post:     post,
		})
	}
}

func writeFeedError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrPostNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(http.StatusNotFound, "Could not find post!"))
	case errors.Is(err, auth.ErrNotOwner):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error(http.StatusForbidden, "Not authorized!"))
	default:
		log.Error("feed operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))
	}
}
