// ABOUTME: HTTP routes for the gatekeeper demo server
// ABOUTME: Auth operations plus gated example surfaces (dashboard, admin)

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmfreitas/gatekeeper/internal/admin"
	"github.com/jmfreitas/gatekeeper/internal/authstate"
	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/gate"
)

// newRouter builds the full route table: public auth operations, the gated
// dashboard, and the ADMIN-only directory management surface.
func newRouter(mgr *authstate.Manager, dir directory.Directory) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	// Public auth surfaces
	r.HandleFunc("/login", handleLogin(mgr)).Methods(http.MethodPost)
	r.HandleFunc("/login", handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/logout", handleLogout(mgr)).Methods(http.MethodPost)
	r.HandleFunc("/register", handleRegister(mgr)).Methods(http.MethodPost)
	r.HandleFunc("/password-reset", handlePasswordReset(mgr)).Methods(http.MethodPost)
	r.HandleFunc("/forbidden", handleForbidden).Methods(http.MethodGet)

	// Current auth state, readable by anyone (it says "anonymous" when
	// unauthenticated rather than redirecting).
	r.HandleFunc("/session", handleSession(mgr)).Methods(http.MethodGet)

	// Any authenticated principal may view the dashboard.
	r.Handle("/dashboard", gate.Middleware(mgr)(http.HandlerFunc(handleDashboard))).Methods(http.MethodGet)

	// Directory management requires the ADMIN role.
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(gate.Middleware(mgr, directory.RoleAdmin))
	admin.NewService(dir).Register(adminRouter)

	return r
}

// loginRequest is the payload for POST /login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// registerRequest is the payload for POST /register.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// resetRequest is the payload for POST /password-reset.
type resetRequest struct {
	Email string `json:"email"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleLogin(mgr *authstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := mgr.Login(r.Context(), req.Email, req.Password, req.Remember)
		if err != nil {
			if errors.Is(err, authstate.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":     sess.Token,
			"principal": sess.Principal,
		})
	}
}

func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// The real login surface is the SPA; this endpoint exists as the
	// redirect target so the gate has somewhere to send the caller.
	writeJSON(w, http.StatusOK, map[string]string{
		"surface": "login",
		"from":    r.URL.Query().Get("from"),
	})
}

func handleLogout(mgr *authstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		mgr.Logout()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRegister(mgr *authstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Name == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "name, email and password required")
			return
		}

		err := mgr.Register(r.Context(), req.Name, req.Email, req.Password, req.Avatar)
		if err != nil {
			if errors.Is(err, authstate.ErrEmailInUse) {
				writeError(w, http.StatusConflict, "email already in use")
				return
			}
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}

		// Registration does not sign the caller in; the client follows up
		// with POST /login.
		w.WriteHeader(http.StatusCreated)
	}
}

func handlePasswordReset(mgr *authstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := mgr.RequestPasswordReset(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, authstate.ErrEmailNotFound) {
				writeError(w, http.StatusNotFound, "email not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "password reset failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "reset email sent"})
	}
}

func handleForbidden(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
}

func handleSession(mgr *authstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state := mgr.State()
		resp := map[string]any{
			"authenticated": state.Authenticated,
			"loading":       state.Loading,
		}
		if state.Principal != nil {
			resp["principal"] = state.Principal
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	p := gate.MustFromContext(r.Context())

	resp := map[string]any{
		"surface":   "dashboard",
		"principal": p,
		// Render-time visibility: the user management panel only shows
		// for admins; viewers and users get the same page without it.
		"showUserManagement": gate.Visible(p, []directory.Role{directory.RoleAdmin}),
	}
	writeJSON(w, http.StatusOK, resp)
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
