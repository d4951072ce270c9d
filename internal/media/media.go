// Package media stores uploaded pictures and serves them under /assets.
package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

var (
	ErrNotFound    = errors.New("media not found")
	ErrInvalidName = errors.New("invalid media name")
)

// Store keeps pictures by name. Uploads keep the client's original file
// name, so a later upload with the same name replaces the earlier one.
type Store interface {
	Save(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// CleanName reduces a client-supplied file name to its base name.
func CleanName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", ErrInvalidName
	}
	return name, nil
}

// Handler serves stored pictures. It expects to be mounted with a trailing
// wildcard, e.g. r.Get("/assets/*", ...).
func Handler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := CleanName(chi.URLParam(r, "*"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		body, err := store.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to read media", http.StatusInternalServerError)
			return
		}
		defer body.Close()

		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		_, _ = io.Copy(w, body)
	}
}
