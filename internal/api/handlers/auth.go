package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dom/socialpedia/internal/media"
	"github.com/dom/socialpedia/internal/metrics"
	"github.com/dom/socialpedia/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService *service.AuthService
	media       media.Store
	metrics     *metrics.Metrics
	maxUpload   int64
	log         logrus.FieldLogger
}

func NewAuthHandler(authService *service.AuthService, store media.Store, m *metrics.Metrics, maxUpload int64, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		media:       store,
		metrics:     m,
		maxUpload:   maxUpload,
		log:         log,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input, picture, err := h.registerInput(w, r)
	if err != nil {
		h.metrics.RecordAuth("register", "bad_request")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.metrics.RecordAuth("register", "invalid")
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateEmail):
			h.metrics.RecordAuth("register", "duplicate")
			writeError(w, http.StatusConflict, "Email already registered")
		default:
			h.metrics.RecordAuth("register", "error")
			h.log.WithError(err).Error("ERROR [handlers.Register] register failed")
			writeError(w, http.StatusInternalServerError, "Failed to register")
		}
		return
	}

	if err := savePicture(r.Context(), h.media, picture); err != nil {
		h.metrics.RecordAuth("register", "error")
		h.log.WithError(err).Error("ERROR [handlers.Register] store picture failed")
		writeError(w, http.StatusInternalServerError, "Failed to store picture")
		return
	}

	h.metrics.RecordAuth("register", "ok")
	writeJSON(w, http.StatusCreated, user)
}

// registerInput reads a JSON body, or multipart form fields plus an optional
// picture upload. The upload is returned unsaved; its name fills picturePath
// when the form left it empty.
func (h *AuthHandler) registerInput(w http.ResponseWriter, r *http.Request) (service.RegisterInput, *multipart.FileHeader, error) {
	var input service.RegisterInput
	if !isMultipart(r) {
		err := decodeJSON(r, &input)
		return input, nil, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return input, nil, err
	}
	input = service.RegisterInput{
		FirstName:   r.FormValue("firstName"),
		LastName:    r.FormValue("lastName"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		PicturePath: r.FormValue("picturePath"),
		Location:    r.FormValue("location"),
		Occupation:  r.FormValue("occupation"),
	}

	picture, name, err := pendingPicture(r)
	if err != nil {
		return input, nil, err
	}
	if input.PicturePath == "" {
		input.PicturePath = name
	}
	return input, picture, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			h.metrics.RecordAuth("login", "unknown_user")
			writeError(w, http.StatusBadRequest, "User does not exist.")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.RecordAuth("login", "bad_password")
			writeError(w, http.StatusBadRequest, "Invalid credentials.")
		default:
			h.metrics.RecordAuth("login", "error")
			h.log.WithError(err).Error("ERROR [handlers.Login] login failed")
			writeError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	h.metrics.RecordAuth("login", "ok")
	writeJSON(w, http.StatusOK, result)
}
