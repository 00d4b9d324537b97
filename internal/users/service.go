package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/codes"
)

type credentialsRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	FindByIdentifier(ctx context.Context, identifier string) ([]User, error)
}

// Service is the credential store: registration and password checks over the users repo
type Service struct {
	repo   credentialsRepo
	hasher PasswordHasher
}

func NewService(repo credentialsRepo, hasher PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

func (s *Service) Register(ctx context.Context, email, username, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.register")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, ErrMissingFields
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Add(ctx, User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	return user, nil
}

// Authenticate accepts either the username or the email as identifier. It succeeds only when
// exactly one of the matching users verifies against the password.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.authenticate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	candidates, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	var matched *User
	for i := range candidates {
		if !s.hasher.Matches(password, candidates[i].PasswordHash) {
			continue
		}
		if matched != nil {
			return nil, ErrInvalidCredentials
		}
		matched = &candidates[i]
	}

	if matched == nil {
		return nil, ErrInvalidCredentials
	}
	return matched, nil
}
