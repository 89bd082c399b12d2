package web

import (
	"errors"
	"net/http"
	"strings"

	"mcpgate/auth"
	"mcpgate/config"
	"mcpgate/model"
)

type loginPage struct {
	Page
	PermissionServers []string
	Tab               string
	Username          string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.renderLogin(w, sess, "login", "")
}

func (s *Server) renderLogin(w http.ResponseWriter, sess *model.Session, tab, username string) {
	s.render(w, "login.html", loginPage{
		Page:              s.newPage(sess, "Login", "login"),
		PermissionServers: s.cfg.PermissionServers,
		Tab:               tab,
		Username:          username,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	permissions, err := s.gate.Authenticate(r.Context(), username, password)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[web] login failed for %q: %v", username, err)
		}
		sess.SetNotice(model.NoticeError, authMessage(err))
		s.renderLogin(w, sess, "login", username)
		return
	}

	sess.Login(username, permissions)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	permissions := r.PostForm["permissions"]

	if err := s.gate.CreateUser(r.Context(), username, password, permissions); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[web] registration failed for %q: %v", username, err)
		}
		sess.SetNotice(model.NoticeError, authMessage(err))
		s.renderLogin(w, sess, "register", username)
		return
	}

	sess.SetNotice(model.NoticeSuccess, "User created, you can now log in")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Logout()
	sess.SetNotice(model.NoticeSuccess, "Logged out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// authMessage maps gate errors to the wording shown on the form.
func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrDenied):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrAlreadyExists):
		return "User already exists"
	case errors.Is(err, auth.ErrMissingFields):
		return "Fill all fields"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return "Password is too long"
	default:
		return "Something went wrong, try again"
	}
}
