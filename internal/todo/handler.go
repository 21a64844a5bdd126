package todo

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// Handler exposes /api/TodoItems. Every route runs behind the token middleware.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ItemRequest is the request body for create and update. OwnerID is accepted
// so clients sending it do not fail, but it is never used.
type ItemRequest struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsComplete bool   `json:"isComplete"`
	Version    int64  `json:"version"`
	OwnerID    string `json:"ownerId"`
}

func (req ItemRequest) input() Input {
	return Input{Name: req.Name, IsComplete: req.IsComplete, Version: req.Version}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	items, err := h.svc.List(r.Context(), p.Subject)
	if err != nil {
		h.writeError(w, p, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	it, err := h.svc.Get(r.Context(), p.Subject, id)
	if err != nil {
		h.writeError(w, p, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, it)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	var req ItemRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid todo payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "Invalid payload", nil)
		return
	}
	it, err := h.svc.Create(r.Context(), p.Subject, req.input())
	if err != nil {
		h.writeError(w, p, err)
		return
	}
	h.logger.Debugw("todo created", "user_id", p.Subject, "todo_id", it.ID)
	w.Header().Set("Location", fmt.Sprintf("/api/TodoItems/%d", it.ID))
	utilities.WriteJSON(w, http.StatusCreated, it)
}

// Update returns 204 on success.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid todo payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "Invalid payload", nil)
		return
	}
	if req.ID != 0 && req.ID != id {
		utilities.WriteError(w, http.StatusBadRequest, "Id mismatch", map[string]string{"id": "must match the id in the path"})
		return
	}
	if _, err := h.svc.Update(r.Context(), p.Subject, id, req.input()); err != nil {
		h.writeError(w, p, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete returns the removed item.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	it, err := h.svc.Delete(r.Context(), p.Subject, id)
	if err != nil {
		h.writeError(w, p, err)
		return
	}
	h.logger.Debugw("todo deleted", "user_id", p.Subject, "todo_id", it.ID)
	utilities.WriteJSON(w, http.StatusOK, it)
}

// target resolves the principal and the {id} path value. A non-numeric id
// cannot name any item, so it is reported as not found.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (token.Principal, int64, bool) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return token.Principal{}, 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		utilities.WriteError(w, http.StatusNotFound, "Not found", nil)
		return token.Principal{}, 0, false
	}
	return p, id, true
}

func (h *Handler) writeError(w http.ResponseWriter, p token.Principal, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, ErrInvalidInput):
		utilities.WriteError(w, http.StatusBadRequest, "Invalid payload", validationFields(err))
	case errors.Is(err, ErrVersionConflict):
		utilities.WriteError(w, http.StatusConflict, "Conflict", nil)
	case errors.Is(err, ErrUnknownOwner):
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
	default:
		h.logger.Errorw("todo operation", "user_id", p.Subject, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func validationFields(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for k, v := range verrs {
		if v != nil {
			out[k] = v.Error()
		}
	}
	return out
}
