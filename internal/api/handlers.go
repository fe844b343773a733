// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"kambios/internal/errors"
	"kambios/internal/logging"
	"kambios/internal/renamer"
	"kambios/internal/undo"
	"kambios/internal/validation"

	"go.uber.org/zap"
)

// UndoStatus answers whether a directory can be undone.
type UndoStatus struct {
	Available bool          `json:"available"`
	Record    *undo.Record  `json:"record,omitempty"`
	Error     *errors.Error `json:"error,omitempty"`
}

// RenameHandler serves the rename API. Calls into the renamer are
// serialized so two requests never rename in the same moment.
type RenameHandler struct {
	mu      sync.Mutex
	renamer *renamer.Renamer
	logger  *logging.Logger
}

func NewRenameHandler(r *renamer.Renamer, logger *logging.Logger) *RenameHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RenameHandler{renamer: r, logger: logger}
}

// Register mounts every endpoint on mux.
func (h *RenameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /api/files", h.Files)
	mux.HandleFunc("POST /api/plan", h.Plan)
	mux.HandleFunc("POST /api/apply", h.Apply)
	mux.HandleFunc("GET /api/undo", h.UndoStatus)
	mux.HandleFunc("POST /api/undo", h.Undo)
	mux.HandleFunc("GET /api/history", h.History)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *RenameHandler) Files(w http.ResponseWriter, r *http.Request) {
	dir, err := validation.DirParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	files, err := h.renamer.ListFiles(dir)
	h.mu.Unlock()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *RenameHandler) Plan(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodePlanRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	preview, err := h.renamer.Preview(req.Dir, req.Request)
	h.mu.Unlock()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func (h *RenameHandler) Apply(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeApplyRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	result, err := h.renamer.Apply(req.Dir, req.Plan)
	h.mu.Unlock()
	if err != nil {
		if result.SuccessCount() > 0 {
			// renames happened but the undo record could not be written
			e := *errors.As(err)
			e.Details = result
			err = &e
		}
		h.writeError(w, r, err)
		return
	}

	h.logger.WithRequestID(r.Context()).Info("plan applied",
		zap.String("dir", req.Dir),
		zap.Int("succeeded", result.SuccessCount()),
		zap.Int("failed", result.FailureCount()))
	writeJSON(w, http.StatusOK, result)
}

func (h *RenameHandler) UndoStatus(w http.ResponseWriter, r *http.Request) {
	dir, err := validation.DirParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status := UndoStatus{Available: h.renamer.UndoDetect(dir)}
	if status.Available {
		rec, err := h.renamer.UndoRead(dir)
		if err != nil {
			status.Error = errors.As(err)
		} else {
			status.Record = rec
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *RenameHandler) Undo(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeUndoRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	result, err := h.renamer.UndoApply(req.Dir)
	h.mu.Unlock()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RenameHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.LimitParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	entries, err := h.renamer.History(limit)
	h.mu.Unlock()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *RenameHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := errors.As(err)
	log := h.logger.WithRequestID(r.Context())
	if e.Code == 0 || e.Code >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("type", string(e.Kind)), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("type", string(e.Kind)), zap.String("message", e.Message))
	}
	status := e.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
