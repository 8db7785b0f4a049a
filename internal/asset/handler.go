package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cutsprite/cutsprite/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// ErrNotFound is returned for unknown asset ids.
var ErrNotFound = errors.New("asset not found")

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves sprite sheet upload and retrieval endpoints.
type Handler struct {
	dir string // directory to store asset files
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// ReadUpload pulls the "file" field of a multipart upload and decodes it.
func ReadUpload(w http.ResponseWriter, r *http.Request) (image.Image, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", fmt.Errorf("file too large (max 10MB): %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	if !Supported(header.Header.Get("Content-Type")) {
		return nil, "", ErrUnsupported
	}

	img, _, err := Decode(file)
	if err != nil {
		return nil, "", err
	}
	return img, header.Filename, nil
}

// Upload handles POST /assets/upload (multipart form with "file" field).
// Images are stored as PNG whatever their upload format.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	img, name, err := ReadUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	assetID, err := h.Save(img)
	if err != nil {
		slog.Error("save asset", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	bounds := img.Bounds()
	resp := UploadResponse{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s.png", assetID),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Type:   "png",
		Name:   name,
	}
	slog.Info("asset uploaded", "asset", assetID, "width", resp.Width, "height", resp.Height)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Save writes img as a new PNG asset and returns its id.
func (h *Handler) Save(img image.Image) (string, error) {
	assetID := typeid.NewAssetID()
	path := h.path(assetID)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode png: %w", err)
	}
	return assetID, nil
}

// Load decodes a stored asset.
func (h *Handler) Load(assetID string) (image.Image, error) {
	f, err := os.Open(h.path(assetID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", assetID, ErrNotFound)
		}
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	return img, err
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	if err := os.Remove(h.path(assetID)); err != nil {
		return fmt.Errorf("%s: %w", assetID, ErrNotFound)
	}
	return nil
}

// path keeps ids to a single file name inside the asset directory.
func (h *Handler) path(assetID string) string {
	return filepath.Join(h.dir, filepath.Base(assetID)+".png")
}
