package posts

import (
	"errors"
	"log/slog"
	"net/http"

	"feed_service/internal/feed"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

func NewGet(
	log *slog.Logger,
	feedService *feed.Feed,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.NewGet"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		post, err := feedService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error(http.StatusNotFound, "Could not find post!"))

				return
			}

			log.Error("failed to fetch post", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		render.JSON(w, r, PostResponse{
			Response: resp.OK("Post fetched."),
			Post:     post,
		})
	}
}
