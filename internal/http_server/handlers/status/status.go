package status

import (
	"errors"
	"log/slog"
	"net/http"

	"feed_service/internal/auth"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/middleware/authgate"
	"feed_service/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type UpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type Response struct {
	resp.Response
	Status string `json:"status"`
}

func NewGet(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.status.NewGet"

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

		user, err := authService.User(r.Context(), ac.Identity.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error(http.StatusNotFound, "No user found!"))

				return
			}

			log.Error("failed to load user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK("Status fetched."),
			Status:   user.Status,
		})
	}
}

func NewUpdate(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.status.NewUpdate"

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

		var req UpdateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.Error(http.StatusUnprocessableEntity, "Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := authService.UpdateStatus(r.Context(), ac.Identity.UserID, req.Status); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error(http.StatusNotFound, "No user found!"))

				return
			}

			log.Error("failed to update status", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(http.StatusInternalServerError, "Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK("Status updated."),
			Status:   req.Status,
		})
	}
}
