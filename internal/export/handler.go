package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cutsprite/cutsprite/internal/atlas"
)

// ErrUnknownSource is returned by a JobSource that has no such session.
var ErrUnknownSource = errors.New("export source not found")

// JobSource snapshots a live session for export.
type JobSource interface {
	ExportJob(sessionID string, allGroups bool) (*Job, error)
}

type Handler struct {
	jobs JobSource
}

func NewHandler(jobs JobSource) *Handler {
	return &Handler{jobs: jobs}
}

type individualResponse struct {
	Files []File          `json:"files"`
	Atlas *atlas.Document `json:"atlas"`
}

// Export handles POST /sessions/{id}/export/{kind}. Kinds are sheet, atlas,
// zip and individual; ?scope=all exports every group instead of the current one.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, kind := vars["id"], vars["kind"]
	switch kind {
	case "sheet", "atlas", "zip", "individual":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid export kind: must be sheet, atlas, zip, or individual"})
		return
	}

	job, err := h.jobs.ExportJob(sessionID, r.URL.Query().Get("scope") == "all")
	if err != nil {
		handleExportError(w, err)
		return
	}
	slog.Info("export started", "session", sessionID, "kind", kind, "scope", job.Name, "slices", len(job.Items))

	ctx := r.Context()
	switch kind {
	case "sheet", "atlas":
		out, err := job.SpriteSheet(ctx)
		if err != nil {
			handleExportError(w, err)
			return
		}
		if kind == "atlas" {
			data, err := out.Atlas.Marshal()
			if err != nil {
				handleExportError(w, err)
				return
			}
			writeFile(w, "application/json", job.AtlasName(), data)
			break
		}
		writeFile(w, "image/png", out.ImageName, out.PNG)

	case "zip":
		data, err := job.Archive(ctx)
		if err != nil {
			handleExportError(w, err)
			return
		}
		writeFile(w, "application/zip", job.ArchiveName(), data)

	case "individual":
		files, doc, err := job.IndividualAtlas(ctx)
		if err != nil {
			handleExportError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, individualResponse{Files: files, Atlas: doc})
	}

	slog.Info("export complete", "session", sessionID, "kind", kind)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func handleExportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownSource):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, ErrNothingToExport):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ErrNothingToExport.Error()})
	case errors.Is(err, atlas.ErrTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
