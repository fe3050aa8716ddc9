package comment

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

type commentRepo interface {
	AddComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id int) (*Comment, error)
	DeleteComment(ctx context.Context, id int) error
}

type Handler struct {
	repo    commentRepo
	metrics *metrics.Manager
}

func NewHandler(repo commentRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/comments", middleware.RequireAuth(handler.handleNewComment)).Methods("POST", "OPTIONS").Name("new-comment")
	router.HandleFunc("/comments/{id}", middleware.RequireAuth(handler.handleDeleteComment)).Methods("DELETE", "OPTIONS").Name("delete-comment")
}

type newCommentRequest struct {
	Comment string `json:"comment"`
	// json.Number so that a non-integer blog id is caught
	// before it ever reaches storage
	BlogID json.Number `json:"blog_id"`
}

func (handler *Handler) handleNewComment(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
		return
	}

	var req newCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "invalid request body", pkg.ErrCodeValidation)
		return
	}

	if req.Comment == "" || req.BlogID == "" {
		pkg.WriteError(w, http.StatusBadRequest, "comment and blog_id are required", pkg.ErrCodeValidation)
		return
	}

	blogID, err := strconv.Atoi(req.BlogID.String())
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "blog_id must be an integer", pkg.ErrCodeValidation)
		return
	}

	newComment := &Comment{
		Comment:   req.Comment,
		BlogID:    blogID,
		UserID:    session.UserID,
		CreatedAt: time.Now(),
	}
	if err := handler.repo.AddComment(r.Context(), newComment); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			log.Warnf("add comment, blog %d does not exist", blogID)
		} else {
			log.Errorf("add comment: %s", err)
		}
		pkg.WriteServerError(w)
		return
	}

	log.Tracef("new comment %d on blog %d by user %d", newComment.ID, newComment.BlogID, newComment.UserID)
	handler.metrics.CounterComments.Inc()

	pkg.WriteOK(w, map[string]any{
		"comment": newComment,
	})
}

func (handler *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized", pkg.ErrCodeUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteError(w, http.StatusNotFound, "Comment not found", pkg.ErrCodeNotFound)
		return
	}

	// absent comment reported before any ownership comparison
	c, err := handler.repo.GetComment(r.Context(), id)
	switch {
	case errors.Is(err, ErrCommentNotFound):
		pkg.WriteError(w, http.StatusNotFound, "Comment not found", pkg.ErrCodeNotFound)
		return
	case err != nil:
		log.Errorf("delete comment, get comment %d: %s", id, err)
		pkg.WriteServerError(w)
		return
	}

	if c.UserID != session.UserID {
		pkg.WriteError(w, http.StatusForbidden, "Forbidden: not the comment owner", pkg.ErrCodeForbidden)
		return
	}

	err = handler.repo.DeleteComment(r.Context(), id)
	switch {
	case errors.Is(err, ErrCommentNotFound):
		pkg.WriteError(w, http.StatusNotFound, "Comment not found", pkg.ErrCodeNotFound)
		return
	case err != nil:
		log.Errorf("delete comment %d: %s", id, err)
		pkg.WriteServerError(w)
		return
	}

	pkg.WriteOK(w, map[string]any{
		"deleted": true,
	})
}
