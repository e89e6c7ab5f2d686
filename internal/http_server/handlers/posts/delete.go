package posts

import (
	"log/slog"
	"net/http"

	"feed_service/internal/feed"
	resp "feed_service/internal/lib/api/response"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

func NewDelete(
	log *slog.Logger,
	feedService *feed.Feed,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.NewDelete"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ac, ok := authenticated(w, r)
		if !ok {
			return
		}

		if err := feedService.Delete(r.Context(), ac.Identity, chi.URLParam(r, "id")); err != nil {
			writeFeedError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK("Post deleted."))
	}
}
