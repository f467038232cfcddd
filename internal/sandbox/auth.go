package sandbox

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/cognigen/internal/api"
)

// CookieName is the session cookie set on login.
const CookieName = "token"

const (
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 6
)

type account struct {
	user api.User
	hash []byte
}

type userKey struct{}

func userFrom(ctx context.Context) api.User {
	u, _ := ctx.Value(userKey{}).(api.User)
	return u
}

// AddUser registers an account directly, for seeding the sandbox.
func (s *Server) AddUser(name, email, password string) (api.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return api.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[email]; taken {
		return api.User{}, fail(http.StatusConflict, "Email already registered")
	}
	u := api.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email}
	s.accounts[email] = &account{user: u, hash: hash}
	return u, nil
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Email) == "" {
		writeError(w, fail(http.StatusBadRequest, "Name and email are required"))
		return
	}
	if len(body.Password) < minPasswordLength {
		writeError(w, fail(http.StatusBadRequest, "Password must be at least 6 characters"))
		return
	}
	u, err := s.AddUser(body.Name, body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.startSession(w, u, http.StatusCreated)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	acct := s.accounts[strings.ToLower(strings.TrimSpace(body.Email))]
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(body.Password)) != nil {
		writeError(w, fail(http.StatusUnauthorized, "Invalid email or password"))
		return
	}
	s.startSession(w, acct.user, http.StatusOK)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]api.User{"user": u})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.sessionUser(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Server) startSession(w http.ResponseWriter, u api.User, status int) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.Email,
		ID:        u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, map[string]api.User{"user": u})
}

// sessionUser resolves the caller from the signed session cookie.
func (s *Server) sessionUser(r *http.Request) (api.User, error) {
	unauthorized := fail(http.StatusUnauthorized, "Not authenticated")

	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return api.User{}, unauthorized
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return api.User{}, unauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[claims.Subject]
	if acct == nil || acct.user.ID != claims.ID {
		return api.User{}, unauthorized
	}
	return acct.user, nil
}
