// ABOUTME: Admin HTTP handlers for principal management
// ABOUTME: Implements list, create, update, delete over the identity directory

package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/gate"
)

// defaultPassword is assigned to admin-created principals when no password
// is supplied, matching the behavior of the original provisioning flow.
const defaultPassword = "password"

// Service exposes directory CRUD as JSON-over-HTTP handlers. Authorization
// is enforced by the capability gate middleware mounted in front of the
// routes, not by the handlers themselves; handlers only read the principal
// from context for attribution logging.
//
// Optimistic update with revert stays in the consuming admin UI: these
// handlers are plain request/response.
type Service struct {
	dir    directory.Directory
	logger *slog.Logger
}

// NewService creates an admin service over the given directory.
func NewService(dir directory.Directory) *Service {
	return &Service{
		dir:    dir,
		logger: slog.Default().With("component", "admin"),
	}
}

// Register mounts the CRUD routes on the given router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc("/principals", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/principals", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/principals/{id}", s.handleUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/principals/{id}", s.handleDelete).Methods(http.MethodDelete)
}

// createRequest is the payload for creating a principal.
type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
}

// updateRequest is the payload for a partial update. Absent fields are left
// unchanged.
type updateRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Avatar *string `json:"avatar"`
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	principals, err := s.dir.ListPrincipals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list principals")
		return
	}

	writeJSON(w, http.StatusOK, principals)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := gate.MustFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	role, err := directory.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role (use ADMIN, USER or VIEWER)")
		return
	}

	password := req.Password
	if password == "" {
		password = defaultPassword
	}

	p, err := s.dir.CreatePrincipal(r.Context(), directory.NewPrincipal{
		Name:     req.Name,
		Email:    req.Email,
		Password: password,
		Role:     role,
		Avatar:   req.Avatar,
	})
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create principal")
		return
	}

	s.logger.Info("principal created", "id", p.ID, "role", p.Role, "actor", actor.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor := gate.MustFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := directory.PrincipalUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	}
	if req.Role != nil {
		role, err := directory.ParseRole(*req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid role (use ADMIN, USER or VIEWER)")
			return
		}
		upd.Role = &role
	}

	p, err := s.dir.UpdatePrincipal(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound):
			writeError(w, http.StatusNotFound, "principal not found")
		case errors.Is(err, directory.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "email already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update principal")
		}
		return
	}

	s.logger.Info("principal updated", "id", id, "actor", actor.ID)
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := gate.MustFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := s.dir.DeletePrincipal(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "principal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete principal")
		return
	}

	s.logger.Info("principal deleted", "id", id, "actor", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
