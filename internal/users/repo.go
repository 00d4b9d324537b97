package users

import (
	"context"
	"fmt"

	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`,
		user.Email, user.Username, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

// FindByIdentifier returns all users whose username or email equals identifier.
// More than one row is possible when one user's username is another user's email.
func (r *Repo) FindByIdentifier(ctx context.Context, identifier string) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.find")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM users
		WHERE username = $1 OR email = $1
		ORDER BY id
	`, identifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		found = append(found, u)
	}

	return found, rows.Err()
}
