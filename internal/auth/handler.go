package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/telemetry/tracing"
	"github.com/2beens/blogbox/internal/user"
	"github.com/2beens/blogbox/pkg"
)

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRepo interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	GetUserByID(ctx context.Context, id int) (*user.User, error)
}

var _ userRepo = (*user.Repo)(nil)

type Handler struct {
	users         userRepo
	sessions      *Service
	metrics       *metrics.Manager
	sessionTTL    time.Duration
	secureCookies bool
}

func NewHandler(
	users userRepo,
	sessions *Service,
	metricsManager *metrics.Manager,
	sessionTTL time.Duration,
	secureCookies bool,
) *Handler {
	return &Handler{
		users:         users,
		sessions:      sessions,
		metrics:       metricsManager,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router, rateLimit mux.MiddlewareFunc) {
	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("", handler.handleSignup).Methods("POST", "OPTIONS").Name("signup")
	authRouter.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", handler.handleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/me", handler.handleMe).Methods("GET", "OPTIONS").Name("me")

	if rateLimit != nil {
		// signup and login are brute-forceable, keep them behind the limiter
		authRouter.Use(rateLimit)
	}
}

func (handler *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.signup")
	defer span.End()

	var signupReq signupRequest
	if err := json.NewDecoder(r.Body).Decode(&signupReq); err != nil {
		log.Errorf("signup, unmarshal json params: %s", err)
		pkg.WriteError(w, http.StatusBadRequest, "invalid request body", pkg.ErrCodeValidation)
		return
	}

	if signupReq.Name == "" || signupReq.Username == "" || signupReq.Password == "" {
		pkg.WriteError(w, http.StatusBadRequest, "name, username and password are required", pkg.ErrCodeValidation)
		return
	}

	passwordHash, err := pkg.HashPassword(signupReq.Password)
	if err != nil {
		log.Errorf("signup, hash password: %s", err)
		pkg.WriteServerError(w)
		return
	}

	newUser := &user.User{
		Name:         signupReq.Name,
		Username:     signupReq.Username,
		PasswordHash: passwordHash,
	}
	if err := handler.users.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			pkg.WriteError(w, http.StatusBadRequest, "username already taken", pkg.ErrCodeValidation)
			return
		}
		log.Errorf("signup, create user: %s", err)
		pkg.WriteServerError(w)
		return
	}

	if !handler.establishSession(ctx, w, newUser.ID) {
		return
	}

	handler.metrics.CounterSignups.Inc()
	log.Tracef("new user %d [%s] signed up", newUser.ID, newUser.Username)

	pkg.WriteOK(w, map[string]any{"user": newUser})
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		pkg.WriteError(w, http.StatusBadRequest, "invalid request body", pkg.ErrCodeValidation)
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		pkg.WriteError(w, http.StatusBadRequest, "username and password are required", pkg.ErrCodeValidation)
		return
	}

	// unknown username and wrong password are deliberately indistinguishable
	// to the client, to prevent user enumeration
	loggedUser, err := handler.users.GetUserByUsername(ctx, loginReq.Username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Tracef("[username] failed login attempt for user: %s", loginReq.Username)
			pkg.WriteError(w, http.StatusBadRequest, "Incorrect username or password", pkg.ErrCodeInvalidCredentials)
			return
		}
		log.Errorf("login, get user: %s", err)
		pkg.WriteServerError(w)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, loggedUser.PasswordHash) {
		log.Tracef("[password] failed login attempt for user: %s", loginReq.Username)
		pkg.WriteError(w, http.StatusBadRequest, "Incorrect username or password", pkg.ErrCodeInvalidCredentials)
		return
	}

	if !handler.establishSession(ctx, w, loggedUser.ID) {
		return
	}

	handler.metrics.CounterLogins.Inc()
	log.Tracef("user %d [%s] logged in", loggedUser.ID, loggedUser.Username)

	pkg.WriteOK(w, map[string]any{"user": loggedUser})
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	session, ok := SessionFromContext(ctx)
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Not logged in", pkg.ErrCodeUnauthorized)
		return
	}

	// session state has to be cleared before the response is written, so that
	// a follow-up request with the same cookie cannot appear authenticated
	if err := handler.sessions.Destroy(ctx, session.Token); err != nil {
		log.Errorf("logout, destroy session: %s", err)
		pkg.WriteServerError(w)
		return
	}

	handler.clearSessionCookie(w)
	log.Tracef("user %d logged out", session.UserID)

	pkg.WriteOK(w, map[string]any{"logged_out": true})
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.me")
	defer span.End()

	session, ok := SessionFromContext(ctx)
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
		return
	}

	currentUser, err := handler.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			pkg.WriteError(w, http.StatusNotFound, "User not found", pkg.ErrCodeNotFound)
			return
		}
		log.Errorf("get current user %d: %s", session.UserID, err)
		pkg.WriteServerError(w)
		return
	}

	pkg.WriteOK(w, map[string]any{"user": currentUser})
}

func (handler *Handler) establishSession(ctx context.Context, w http.ResponseWriter, userID int) bool {
	token, err := handler.sessions.Create(ctx, userID, time.Now())
	if err != nil {
		log.Errorf("establish session for user %d: %s", userID, err)
		pkg.WriteServerError(w)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(handler.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (handler *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
