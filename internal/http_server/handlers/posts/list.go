package posts

import (
	"log/slog"
	"net/http"
	"strconv"

	"feed_service/internal/feed"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

func NewList(
	log *slog.Logger,
	feedService *feed.Feed,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		posts, total, err := feedService.List(r.Context(), page)
		if err != nil {
			log.Error("failed to list posts", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response:   resp.OK("Fetched posts successfuly."),
			Posts:      posts,
			TotalItems: total,
		})
	}
}
