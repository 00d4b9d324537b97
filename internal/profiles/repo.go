package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/jackc/pgx/v5"
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

// Upsert replaces the whole stored profile. A missing BMI clears the stored one.
func (r *Repo) Upsert(ctx context.Context, p Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.upsert")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_details (username, gender, age, height, weight, bmi)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE SET
			gender = EXCLUDED.gender,
			age = EXCLUDED.age,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			bmi = EXCLUDED.bmi
	`,
		p.Username, string(p.Gender), p.Age, p.Height, p.Weight, p.BMI,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return ErrUnknownUser
		}
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, username string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var p Profile
	var gender string
	err = r.db.QueryRow(ctx, `
		SELECT username, gender, age, height, weight, bmi
		FROM user_details
		WHERE username = $1
	`, username).Scan(&p.Username, &gender, &p.Age, &p.Height, &p.Weight, &p.BMI)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Gender = Gender(gender)

	return &p, nil
}
