package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dom/socialpedia/internal/api/middleware"
	"github.com/dom/socialpedia/internal/media"
	"github.com/dom/socialpedia/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PostHandler struct {
	feedService *service.FeedService
	media       media.Store
	maxUpload   int64
	log         logrus.FieldLogger
}

func NewPostHandler(feedService *service.FeedService, store media.Store, maxUpload int64, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{
		feedService: feedService,
		media:       store,
		maxUpload:   maxUpload,
		log:         log,
	}
}

type CreatePostRequest struct {
	UserID      string `json:"userId"`
	Description string `json:"description"`
	PicturePath string `json:"picturePath"`
}

type LikeRequest struct {
	UserID string `json:"userId"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	req, picture, err := h.createRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.actingAs(w, actor, req.UserID) {
		return
	}

	posts, err := h.feedService.CreatePost(r.Context(), service.CreatePostInput{
		UserID:      actor,
		Description: req.Description,
		PicturePath: req.PicturePath,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.WithError(err).Error("ERROR [handlers.CreatePost] create failed")
		writeError(w, http.StatusConflict, "Failed to create post")
		return
	}

	if err := savePicture(r.Context(), h.media, picture); err != nil {
		h.log.WithError(err).Error("ERROR [handlers.CreatePost] store picture failed")
		writeError(w, http.StatusInternalServerError, "Failed to store picture")
		return
	}

	writeJSON(w, http.StatusCreated, posts)
}

func (h *PostHandler) createRequest(w http.ResponseWriter, r *http.Request) (CreatePostRequest, *multipart.FileHeader, error) {
	var req CreatePostRequest
	if !isMultipart(r) {
		err := decodeJSON(r, &req)
		return req, nil, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return req, nil, err
	}
	req = CreatePostRequest{
		UserID:      r.FormValue("userId"),
		Description: r.FormValue("description"),
		PicturePath: r.FormValue("picturePath"),
	}

	picture, name, err := pendingPicture(r)
	if err != nil {
		return req, nil, err
	}
	if req.PicturePath == "" {
		req.PicturePath = name
	}
	return req, picture, nil
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feedService.ListFeed(r.Context())
	if err != nil {
		h.log.WithError(err).Error("ERROR [handlers.ListPosts] list failed")
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(r, "userId")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	posts, err := h.feedService.ListByAuthor(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("ERROR [handlers.ListUserPosts] list failed")
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// Like toggles the authenticated user's like on a post.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req LikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.actingAs(w, actor, req.UserID) {
		return
	}

	post, err := h.feedService.ToggleLike(r.Context(), postID, actor)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.log.WithError(err).Error("ERROR [handlers.LikePost] toggle failed")
		writeError(w, http.StatusInternalServerError, "Failed to like post")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// actingAs writes 403 and returns false when a client-supplied user id names
// someone other than the authenticated user. An empty id is accepted.
func (h *PostHandler) actingAs(w http.ResponseWriter, actor uuid.UUID, claimed string) bool {
	id, present, err := optionalUUID(claimed)
	if err != nil || (present && id != actor) {
		writeError(w, http.StatusForbidden, service.ErrForbiddenActor.Error())
		return false
	}
	return true
}
