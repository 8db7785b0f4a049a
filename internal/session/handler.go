package session

import (
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/atlas"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/engine"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

const maxProjectSize = 32 << 20

// Handler serves the session HTTP endpoints and the WebSocket upgrade.
type Handler struct {
	hub           *Hub
	origins       []string
	thumbnailSize int
}

// NewHandler creates a handler for hub. origins lists the host patterns
// allowed to open WebSockets.
func NewHandler(hub *Hub, origins []string, thumbnailSize int) *Handler {
	return &Handler{hub: hub, origins: origins, thumbnailSize: thumbnailSize}
}

type sessionResponse struct {
	ID        string        `json:"id"`
	Clients   int           `json:"clients"`
	CreatedAt string        `json:"createdAt"`
	Frame     *FramePayload `json:"frame"`
}

func newSessionResponse(room *Room) sessionResponse {
	return sessionResponse{
		ID:        room.id,
		Clients:   room.Clients(),
		CreatedAt: room.created.UTC().Format(time.RFC3339),
		Frame:     newFramePayload(room.engine.Frame()),
	}
}

// Create handles POST /sessions. ?sample=true seeds the sample project.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	room := h.hub.CreateSession()
	if r.URL.Query().Get("sample") == "true" {
		if err := room.engine.LoadSample(); err != nil {
			handleServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(room))
}

// Get handles GET /sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.hub.Room(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(room))
}

// Delete handles DELETE /sessions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.DeleteSession(mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /sessions/{id}/image (multipart "file" field).
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	room, err := h.hub.Room(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	img, name, err := asset.ReadUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	room.engine.SetImage(img, name)
	room.Publish()
	writeJSON(w, http.StatusOK, newFramePayload(room.engine.Frame()))
}

// GetProject handles GET /sessions/{id}/project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	data, err := h.hub.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PutProject handles PUT /sessions/{id}/project. A rejected file leaves the
// session unchanged.
func (h *Handler) PutProject(w http.ResponseWriter, r *http.Request) {
	h.withBody(w, r, (*engine.Engine).LoadProject)
}

// GetGroups handles GET /sessions/{id}/groups.
func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	room, err := h.hub.Room(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	data, err := room.engine.ExportGroups()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportGroups handles POST /sessions/{id}/groups.
func (h *Handler) ImportGroups(w http.ResponseWriter, r *http.Request) {
	h.withBody(w, r, (*engine.Engine).ImportGroups)
}

func (h *Handler) withBody(w http.ResponseWriter, r *http.Request, apply func(*engine.Engine, []byte) error) {
	room, err := h.hub.Room(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProjectSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := apply(room.engine, data); err != nil {
		handleServiceError(w, err)
		return
	}
	room.Publish()
	writeJSON(w, http.StatusOK, newFramePayload(room.engine.Frame()))
}

// Thumbnail handles GET /sessions/{id}/slices/{slice}/thumbnail[?size=n].
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	room, err := h.hub.Room(vars["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	sliceID, err := strconv.Atoi(vars["slice"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid slice id"})
		return
	}
	size := h.thumbnailSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 {
		size = s
	}

	img, err := room.engine.Thumbnail(sliceID, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

// ServeWS handles GET /ws/session/{id} and runs the client until it
// disconnects.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if _, err := h.hub.Room(sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, sessionID, uuid.New().String())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, geometry.ErrSliceNotFound), errors.Is(err, geometry.ErrUnknownGroup):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, document.ErrInvalidFormat):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, geometry.ErrLastGroup):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, export.ErrNothingToExport):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, atlas.ErrTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("session error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
