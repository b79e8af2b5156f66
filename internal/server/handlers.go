package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/vincentbai/browsetrace-dashboard/internal/auth"
	"github.com/vincentbai/browsetrace-dashboard/internal/database"
	"github.com/vincentbai/browsetrace-dashboard/internal/links"
	"github.com/vincentbai/browsetrace-dashboard/internal/models"
	"github.com/vincentbai/browsetrace-dashboard/internal/stats"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, code int, status, message string) {
	writeJSON(w, code, models.Response{Status: status, Message: message})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.Load(r).Authenticated {
			s.logger.Warn("Unauthenticated request", "path", r.URL.Path, "remote", clientIP(r))
			writeStatus(w, http.StatusForbidden, "error", "Unauthorized access")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

// handleStatistics shows the dashboard to authenticated sessions and the
// login form to everyone else.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Load(r).Authenticated {
		s.renderLogin(w, http.StatusOK, "")
		return
	}

	records, err := s.db.Records()
	if err != nil {
		s.logger.Error("Failed to load records", "error", err)
		http.Error(w, "Failed to load records", http.StatusInternalServerError)
		return
	}
	registered, err := s.db.Links()
	if err != nil {
		s.logger.Error("Failed to load links", "error", err)
		http.Error(w, "Failed to load links", http.StatusInternalServerError)
		return
	}

	view := stats.NewSVGView(s.chartW, s.chartH, stats.Elements()...)
	if err := stats.Render(view, records); err != nil {
		s.logger.Error("Failed to render dashboard", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	page, err := newDashboardPage(view, records, registered)
	if err != nil {
		s.logger.Error("Failed to encode dashboard data", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "statistics.html", page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	remote := clientIP(r)
	if !s.loginLimiter.Allow(remote) {
		s.renderLogin(w, http.StatusTooManyRequests, "Too many requests, slow down.")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderLogin(w, http.StatusBadRequest, "Malformed form.")
		return
	}

	session := s.sessions.Load(r)
	err := s.sessions.Login(session, s.digest, auth.SubmittedDigest(r.PostForm))
	if saveErr := s.sessions.Save(w, session); saveErr != nil {
		s.logger.Error("Failed to save session", "error", saveErr)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	switch {
	case errors.Is(err, auth.ErrLockedOut):
		s.logger.Error("Login attempts exhausted", "remote", remote, "attempts", session.Attempts)
		s.renderLogin(w, http.StatusForbidden, "Too many failed attempts you have been locked out.")
	case errors.Is(err, auth.ErrIncorrectPassword):
		s.logger.Warn("Failed password attempt", "remote", remote, "attempts", session.Attempts)
		s.renderLogin(w, http.StatusUnauthorized, "Incorrect password.")
	case err != nil:
		s.logger.Error("Login failed", "remote", remote, "error", err)
		s.renderLogin(w, http.StatusInternalServerError, "Unexpected error.")
	default:
		s.logger.Info("Successful login", "remote", remote)
		http.Redirect(w, r, "/statistics", http.StatusSeeOther)
	}
}

func (s *Server) handleClearDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Clear(); err != nil {
		s.logger.Error("Error clearing database", "error", err)
		writeStatus(w, http.StatusInternalServerError, "error", "Unexpected error.")
		return
	}
	s.logger.Info("Database cleared successfully", "remote", clientIP(r))
	writeStatus(w, http.StatusOK, "success", "Database cleared.")
}

func (s *Server) handleGenerateLink(w http.ResponseWriter, r *http.Request) {
	var req models.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "error", "Incorrect schema")
		return
	}
	if err := links.Validate(req); err != nil {
		s.logger.Warn("Incorrect link schema", "remote", clientIP(r), "error", err)
		writeStatus(w, http.StatusBadRequest, "error", "Incorrect schema")
		return
	}
	if err := s.db.InsertLink(req.GeneratedLink, req.RedirectURL); err != nil {
		s.logger.Error("Error while generating a new link", "error", err)
		writeStatus(w, http.StatusInternalServerError, "error", "Unexpected error")
		return
	}
	s.logger.Info("Inserted new link", "link", req.GeneratedLink)
	writeStatus(w, http.StatusOK, "success", "Links successfully inserted into database")
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "error", "Invalid JSON format")
		return
	}
	if strings.TrimSpace(req.CustomLink) == "" {
		writeStatus(w, http.StatusBadRequest, "error", "No link specified.")
		return
	}

	err := s.db.DeleteLink(req.CustomLink)
	switch {
	case errors.Is(err, database.ErrLinkNotFound):
		writeStatus(w, http.StatusNotFound, "error", "Link not found.")
	case err != nil:
		s.logger.Error("Error while removing link", "link", req.CustomLink, "error", err)
		writeStatus(w, http.StatusInternalServerError, "error", "Unexpected error")
	default:
		s.logger.Info("Removed link", "link", req.CustomLink)
		writeStatus(w, http.StatusOK, "success", "Link successfully removed from the database.")
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.ingestLimiter.Allow(clientIP(r)) {
		writeStatus(w, http.StatusTooManyRequests, "error", "Rate limit exceeded")
		return
	}
	var batch models.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(batch.Records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err := s.recorder.Submit(batch.Records)
	switch {
	case errors.Is(err, ants.ErrPoolOverload), errors.Is(err, ants.ErrPoolClosed):
		s.logger.Warn("Insert queue unavailable", "error", err)
		writeStatus(w, http.StatusServiceUnavailable, "error", "Try again later")
	case err != nil:
		s.logger.Warn("Incorrect schema for user data", "remote", clientIP(r), "error", err)
		writeStatus(w, http.StatusBadRequest, "error", "Incorrect schema")
	default:
		writeStatus(w, http.StatusAccepted, "success", "Records queued")
	}
}

func (s *Server) handleListRecords(w http.ResponseWriter, _ *http.Request) {
	records, err := s.db.Records()
	if err != nil {
		s.logger.Error("Failed to load records", "error", err)
		writeStatus(w, http.StatusInternalServerError, "error", "Unexpected error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleRedirect sends visitors of a generated link to its target.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	requested := requestURL(r, s.trustProxy)
	link, err := s.db.LinkByURL(requested)
	switch {
	case err == nil:
		s.logger.Info("Redirecting", "remote", clientIP(r), "link", requested, "target", link.RedirectURL)
		http.Redirect(w, r, link.RedirectURL, http.StatusFound)
	case !errors.Is(err, database.ErrLinkNotFound):
		s.logger.Error("Failed to look up link", "url", requested, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	case r.URL.Path == "/":
		http.Redirect(w, r, "/statistics", http.StatusFound)
	default:
		s.logger.Debug("No link registered", "url", requested)
		http.NotFound(w, r)
	}
}

// requestURL rebuilds the absolute URL the client asked for, the form in
// which generated links are stored. X-Forwarded-Proto is only read behind
// a trusted proxy.
func requestURL(r *http.Request, trustProxy bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if trustProxy {
		switch proto := r.Header.Get("X-Forwarded-Proto"); proto {
		case "http", "https":
			scheme = proto
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
