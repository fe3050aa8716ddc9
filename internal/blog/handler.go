package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogbox/internal/auth"
	"github.com/2beens/blogbox/internal/middleware"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/pkg"
)

type blogRepo interface {
	AddBlog(ctx context.Context, blog *Blog) error
	UpdateBlog(ctx context.Context, id int, title, content string) error
	DeleteBlog(ctx context.Context, id int) error
	Feed(ctx context.Context) ([]FeedItem, error)
	GetBlog(ctx context.Context, id int) (*Detail, error)
	GetBlogOwner(ctx context.Context, id int) (*Blog, error)
}

type Handler struct {
	repo    blogRepo
	metrics *metrics.Manager
}

func NewHandler(repo blogRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blogs", handler.handleFeed).Methods("GET").Name("blogs-feed")
	router.HandleFunc("/blogs", middleware.RequireAuth(handler.handleNewBlog)).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/blogs/{id}", handler.handleGetBlog).Methods("GET").Name("get-blog")
	router.HandleFunc("/blogs/{id}", middleware.RequireAuth(handler.requireOwner(handler.handleUpdateBlog))).Methods("PUT", "OPTIONS").Name("update-blog")
	router.HandleFunc("/blogs/{id}", middleware.RequireAuth(handler.requireOwner(handler.handleDeleteBlog))).Methods("DELETE", "OPTIONS").Name("delete-blog")
}

// requireOwner loads the addressed blog and lets the request through only
// when the session user owns it. An absent blog yields 404 before any
// ownership comparison, so strangers cannot probe which ids exist as
// foreign-owned vs missing. The loaded blog is attached to the request
// context for the wrapped handler.
func (handler *Handler) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := auth.SessionFromContext(ctx)
		if !ok {
			pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
			return
		}

		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			// a non-numeric id cannot address any blog
			pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
			return
		}

		blog, err := handler.repo.GetBlogOwner(ctx, id)
		switch {
		case errors.Is(err, ErrBlogNotFound):
			pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
			return
		case err != nil:
			log.Errorf("blog ownership check, get blog %d: %s", id, err)
			pkg.WriteServerError(w)
			return
		}

		if blog.UserID != session.UserID {
			pkg.WriteError(w, http.StatusForbidden, "Forbidden: not the blog owner", pkg.ErrCodeForbidden)
			return
		}

		next(w, r.WithContext(ContextWithBlog(ctx, blog)))
	}
}

func (handler *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := handler.repo.Feed(r.Context())
	if err != nil {
		log.Errorf("get blogs feed: %s", err)
		pkg.WriteServerError(w)
		return
	}

	if feed == nil {
		feed = []FeedItem{}
	}

	pkg.WriteOK(w, map[string]any{
		"blogs": feed,
	})
}

func (handler *Handler) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
		return
	}

	detail, err := handler.repo.GetBlog(r.Context(), id)
	switch {
	case errors.Is(err, ErrBlogNotFound):
		pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
		return
	case err != nil:
		log.Errorf("get blog %d: %s", id, err)
		pkg.WriteServerError(w)
		return
	}

	pkg.WriteOK(w, map[string]any{
		"blog": detail,
	})
}

type newBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (handler *Handler) handleNewBlog(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
		return
	}

	var req newBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "invalid request body", pkg.ErrCodeValidation)
		return
	}

	if req.Title == "" || req.Content == "" {
		pkg.WriteError(w, http.StatusBadRequest, "title and content are required", pkg.ErrCodeValidation)
		return
	}

	newBlog := &Blog{
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now(),
		UserID:    session.UserID,
	}
	if err := handler.repo.AddBlog(r.Context(), newBlog); err != nil {
		log.Errorf("add new blog: %s", err)
		pkg.WriteServerError(w)
		return
	}

	log.Tracef("new blog %d added by user %d", newBlog.ID, newBlog.UserID)
	handler.metrics.CounterBlogPosts.Inc()

	pkg.WriteOK(w, map[string]any{
		"blog": newBlog,
	})
}

type updateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (handler *Handler) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	blog, ok := BlogFromContext(r.Context())
	if !ok {
		// requireOwner always runs first, missing blog here is a programming error
		pkg.WriteServerError(w)
		return
	}

	var req updateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "invalid request body", pkg.ErrCodeValidation)
		return
	}

	if req.Title == "" || req.Content == "" {
		pkg.WriteError(w, http.StatusBadRequest, "title and content are required", pkg.ErrCodeValidation)
		return
	}

	err := handler.repo.UpdateBlog(r.Context(), blog.ID, req.Title, req.Content)
	switch {
	case errors.Is(err, ErrBlogNotFound):
		pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
		return
	case err != nil:
		log.Errorf("update blog %d: %s", blog.ID, err)
		pkg.WriteServerError(w)
		return
	}

	pkg.WriteOK(w, map[string]any{
		"updated": true,
	})
}

func (handler *Handler) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	blog, ok := BlogFromContext(r.Context())
	if !ok {
		pkg.WriteServerError(w)
		return
	}

	err := handler.repo.DeleteBlog(r.Context(), blog.ID)
	switch {
	case errors.Is(err, ErrBlogNotFound):
		pkg.WriteError(w, http.StatusNotFound, "Blog not found", pkg.ErrCodeNotFound)
		return
	case err != nil:
		log.Errorf("delete blog %d: %s", blog.ID, err)
		pkg.WriteServerError(w)
		return
	}

	log.Tracef("blog %d deleted by user %d", blog.ID, blog.UserID)

	pkg.WriteOK(w, map[string]any{
		"deleted": true,
	})
}
