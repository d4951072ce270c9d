package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/socialpedia/internal/api/middleware"
	"github.com/dom/socialpedia/internal/service"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	authService   *service.AuthService
	socialService *service.SocialService
	log           logrus.FieldLogger
}

func NewUserHandler(authService *service.AuthService, socialService *service.SocialService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		authService:   authService,
		socialService: socialService,
		log:           log,
	}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.authService.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "handlers.GetUser", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	friends, err := h.socialService.GetFriends(r.Context(), id)
	if err != nil {
		h.fail(w, "handlers.Friends", err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

// ToggleFriend handles PATCH /users/{id}/{friendId}. Only the authenticated
// user may change their own friend list.
func (h *UserHandler) ToggleFriend(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if id != actor {
		writeError(w, http.StatusForbidden, service.ErrForbiddenActor.Error())
		return
	}

	friendID, ok := uuidParam(r, "friendId")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	friends, err := h.socialService.ToggleFriend(r.Context(), id, friendID)
	if err != nil {
		h.fail(w, "handlers.ToggleFriend", err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

func (h *UserHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrSelfFriend):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.WithError(err).Errorf("ERROR [%s] request failed", op)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
