package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dom/socialpedia/internal/media"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// decodeJSON decodes the body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pendingPicture returns the optional "picture" file of a parsed multipart
// form along with the name it will be stored under, or nil when no file was
// sent. Nothing is written until savePicture runs.
func pendingPicture(r *http.Request) (*multipart.FileHeader, string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["picture"]) == 0 {
		return nil, "", nil
	}
	header := r.MultipartForm.File["picture"][0]
	name, err := media.CleanName(header.Filename)
	if err != nil {
		return nil, "", err
	}
	return header, name, nil
}

// savePicture writes a file returned by pendingPicture. A nil header is a no-op.
func savePicture(ctx context.Context, store media.Store, header *multipart.FileHeader) error {
	if header == nil {
		return nil
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = store.Save(ctx, header.Filename, file, header.Header.Get("Content-Type"))
	return err
}

func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// optionalUUID parses s, treating "" as absent.
func optionalUUID(s string) (uuid.UUID, bool, error) {
	if s == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}
