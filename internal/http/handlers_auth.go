package http

import (
	"errors"
	"net/http"

	"finsight/internal/identity"
)

type authPage struct {
	Email string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/financial", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", authPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := sanitizeInput(r.FormValue("email"))
	password := r.FormValue("password")

	token, err := s.identity.Login(r.Context(), email, password)
	if err != nil {
		status := http.StatusInternalServerError
		message := "something went wrong, please try again"
		if errors.Is(err, identity.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			message = "invalid email or password"
		}
		s.render(w, r, status, "login.html", authPage{Email: email, Error: message})
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/financial", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/financial", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "register.html", authPage{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := sanitizeInput(r.FormValue("email"))
	password := r.FormValue("password")

	token, err := s.identity.Register(r.Context(), email, password)
	if err != nil {
		status := http.StatusInternalServerError
		message := "something went wrong, please try again"
		switch {
		case errors.Is(err, identity.ErrInvalidEmail),
			errors.Is(err, identity.ErrWeakPassword):
			status = http.StatusUnprocessableEntity
			message = err.Error()
		case errors.Is(err, identity.ErrEmailTaken):
			status = http.StatusConflict
			message = err.Error()
		}
		s.render(w, r, status, "register.html", authPage{Email: email, Error: message})
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/financial", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.identity.Tokens().TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
