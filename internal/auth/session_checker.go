package auth

import (
	"context"
	"errors"

	"github.com/2beens/fittracker/internal/session"
)

// SessionChecker tells the auth middleware whether a token belongs to a live session.
// Whether the session is logged in is up to the session controller.
type SessionChecker struct {
	service *Service
}

func NewSessionChecker(service *Service) *SessionChecker {
	return &SessionChecker{
		service: service,
	}
}

func (c *SessionChecker) IsActive(ctx context.Context, token string) (bool, error) {
	_, err := c.service.read(ctx, token)
	if errors.Is(err, session.ErrUnknownSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
