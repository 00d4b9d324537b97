package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/session"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL          = 24 * 7 * time.Hour
	DefaultAnonymousTTL = 30 * time.Minute
	sessionKeyPrefix = "fittracker-session||"
	tokensSetKey     = "fittracker-sessions"
	tokenLength      = 35
)

// storedSession lifetime is in seconds, fixed when the token is created.
type storedSession struct {
	State     session.State `json:"state"`
	CreatedAt int64         `json:"createdAt"`
	Lifetime  int64         `json:"lifetime"`
}

// Service keeps session state in redis, keyed by an opaque client token.
type Service struct {
	redisClient  *redis.Client
	ttl          time.Duration
	anonymousTTL time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
	now            func() time.Time
}

func NewService(
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:            ttl,
		anonymousTTL:   min(DefaultAnonymousTTL, ttl),
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
		now:            time.Now,
	}
}

// WithAnonymousTTL sets the lifetime of tokens created for not logged in sessions, capped at the full TTL.
func (s *Service) WithAnonymousTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.anonymousTTL = min(ttl, s.ttl)
	}
	return s
}

// Create stores state under a new token. Logged in sessions get the full TTL,
// anonymous ones only live long enough to get through login or registration.
func (s *Service) Create(ctx context.Context, state session.State) (string, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.session.create")
	defer span.End()

	token, err := s.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	lifetime := s.anonymousTTL
	if state.Authenticated() {
		lifetime = s.ttl
	}

	stored := storedSession{
		State:     state,
		CreatedAt: s.now().Unix(),
		Lifetime:  int64(lifetime / time.Second),
	}
	if err := s.write(ctx, token, stored); err != nil {
		return "", err
	}

	// add token to list of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *Service) Load(ctx context.Context, token string) (session.State, error) {
	stored, err := s.read(ctx, token)
	if err != nil {
		return session.State{}, err
	}
	return stored.State, nil
}

// Save overwrites the state of an existing session. The session lifetime is not extended.
func (s *Service) Save(ctx context.Context, token string, state session.State) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.session.save")
	defer span.End()

	stored, err := s.read(ctx, token)
	if err != nil {
		return err
	}
	stored.State = state
	return s.write(ctx, token, stored)
}

func (s *Service) Delete(ctx context.Context, token string) error {
	if err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return err
	}
	// remove token from the list of sessions
	return s.redisClient.SRem(ctx, tokensSetKey, token).Err()
}

func (s *Service) read(ctx context.Context, token string) (storedSession, error) {
	var stored storedSession
	raw, err := s.redisClient.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return stored, session.ErrUnknownSession
		}
		return stored, err
	}

	if err := json.Unmarshal(raw, &stored); err != nil {
		return stored, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.expired(stored) {
		return stored, session.ErrUnknownSession
	}

	return stored, nil
}

func (s *Service) write(ctx context.Context, token string, stored storedSession) error {
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	remaining := time.Unix(stored.CreatedAt, 0).Add(s.lifetime(stored)).Sub(s.now())
	if remaining <= 0 {
		return session.ErrUnknownSession
	}

	return s.redisClient.Set(ctx, sessionKeyPrefix+token, raw, remaining).Err()
}

func (s *Service) lifetime(stored storedSession) time.Duration {
	if stored.Lifetime <= 0 {
		return s.ttl
	}
	return time.Duration(stored.Lifetime) * time.Second
}

func (s *Service) expired(stored storedSession) bool {
	return s.now().Sub(time.Unix(stored.CreatedAt, 0)) > s.lifetime(stored)
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		_, err := s.read(ctx, token)
		if errors.Is(err, session.ErrUnknownSession) {
			toRemove = append(toRemove, token)
			continue
		}
		if err != nil {
			log.Errorf("=> auth service, scan and clean token: %s", err)
		}
	}

	for _, token := range toRemove {
		if err := s.Delete(ctx, token); err != nil {
			log.Errorf("=> auth service, clean token: %s", err)
		}
	}

	log.Debugf("=> auth service, scan and clean done, removed %d sessions", len(toRemove))
}

// RunCleanup calls ScanAndClean every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ScanAndClean(ctx)
		}
	}
}
