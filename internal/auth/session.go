package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogbox/pkg"
)

const (
	DefaultTTL = 24 * time.Hour

	// SessionCookieName is the opaque session id cookie handed to clients.
	SessionCookieName = "blogbox_session"

	sessionKeyPrefix = "blogbox-session||"
	tokensSetKey     = "blogbox-sessions"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side authentication state bound to a cookie token.
// A successfully resolved session implies a logged-in user.
type Session struct {
	Token     string
	UserID    int
	CreatedAt time.Time
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Create establishes a new session for the given user and returns its token.
func (s *Service) Create(ctx context.Context, userID int, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	sessionVal := fmt.Sprintf("%d:%d", userID, createdAt.Unix())
	if err := s.redisClient.Set(ctx, sessionKey, sessionVal, 0).Err(); err != nil {
		return "", err
	}

	// add token to the list of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Destroy removes the session state. It must complete before the logout
// response is written, so a follow-up request on the same cookie can
// never appear authenticated.
func (s *Service) Destroy(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return err
	}

	// remove token from the list of sessions
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return err
	}

	return nil
}

// Resolve returns the session for the given token, or ErrSessionNotFound
// for unknown, malformed and expired sessions.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	cmd := s.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session, err := parseSession(token, cmd.Val())
	if err != nil {
		log.Errorf("resolve session, malformed state: %s", err)
		return nil, ErrSessionNotFound
	}

	if time.Since(session.CreatedAt) > s.ttl {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! session service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> session service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> session service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		cmd := s.redisClient.Get(ctx, sessionKeyPrefix+token)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// value gone, only the set member is left behind
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("=> session service, scan and clean token %s: %s", token, err)
			continue
		}

		session, err := parseSession(token, cmd.Val())
		if err != nil {
			log.Errorf("=> session service, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if time.Since(session.CreatedAt) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := s.Destroy(ctx, token); err != nil {
			log.Errorf("=> session service, clean token %s: %s", token, err)
		}
	}
}

func parseSession(token, val string) (*Session, error) {
	userIDStr, createdAtStr, found := strings.Cut(val, ":")
	if !found {
		return nil, fmt.Errorf("session value [%s] has no separator", val)
	}

	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("session user id: %w", err)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session created at: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}
