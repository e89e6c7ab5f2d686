package posts

import (
	"errors"
	"log/slog"
	"net/http"

	"feed_service/internal/feed"
	"feed_service/internal/files"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	feedService *feed.Feed,
	images *files.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.NewCreate"

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

		file, name, ok := formImage(r)
		if !ok {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.Error(http.StatusUnprocessableEntity, "No image provided."))

			return
		}

		imageURL, ok := saveImage(log, images, file, name)
		if !ok {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		post, err := feedService.Create(r.Context(), ac.Identity, req.Title, req.Content, imageURL)
		if err != nil {
			discardImage(log, images, imageURL)

			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error(http.StatusUnauthorized, "Invalid user."))

				return
			}

			log.Error("failed to create post", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, PostResponse{
			Response: resp.Created("Post created successfully!"),
			Post:     post,
		})
	}
}
