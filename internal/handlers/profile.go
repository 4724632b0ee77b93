package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/handlers/render"
	"github.com/nkiryanov/fintrack/internal/logger"
)

func handleGetProfile(profileService profileService, l logger.Logger) http.Handler {
	type response struct {
		Success bool         `json:"success"`
		User    userResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		profile, err := profileService.GetProfile(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to load profile", "error", err)
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Success: true, User: newUserResponse(profile)})
	})
}

func handleUpdateProfile(profileService profileService, l logger.Logger) http.Handler {
	type request struct {
		Name  *string `json:"name" validate:"omitempty,max=100"`
		Email *string `json:"email" validate:"omitempty,email"`
	}
	type response struct {
		Success bool         `json:"success"`
		User    userResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := profileService.UpdateProfile(r.Context(), user.ID, data.Name, data.Email)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrEmailTaken):
				render.Error(w, "Email is already in use", http.StatusBadRequest)
			default:
				l.Error("Failed to update profile", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Success: true, User: newUserResponse(updated)})
	})
}

func handleChangePassword(profileService profileService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := profileService.ChangePassword(r.Context(), user.ID, data.CurrentPassword, data.NewPassword); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.Error(w, "Current password is incorrect", http.StatusBadRequest)
			default:
				l.Error("Failed to change password", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Success: true, Message: "Password changed successfully"})
	})
}
