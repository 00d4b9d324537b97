package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
)

type Repo struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:  db,
		now: time.Now,
	}
}

// WithClock replaces the clock the entry dates come from.
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Append stores a workout dated today. The profile check and the insert are one statement,
// so a workout can never be stored for a user without a profile.
func (r *Repo) Append(ctx context.Context, username string, w Workout, caloriesBurned float64) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.append")
	defer func() {
		if err != nil && !errors.Is(err, ErrMissingProfile) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entry := Entry{
		Username:       username,
		Date:           Today(r.now()),
		Duration:       w.Duration,
		HeartRate:      w.HeartRate,
		BodyTemp:       w.BodyTemp,
		StepsTaken:     w.StepsTaken,
		CaloriesBurned: caloriesBurned,
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO progress (username, date, duration, heart_rate, body_temp, steps_taken, calories_burned)
		SELECT $1::varchar, $2::date, $3::integer, $4::integer, $5::double precision, $6::integer, $7::double precision
		WHERE EXISTS (SELECT 1 FROM user_details WHERE username = $1::varchar)
		RETURNING id
	`,
		entry.Username, entry.Date, entry.Duration, entry.HeartRate, entry.BodyTemp, entry.StepsTaken, entry.CaloriesBurned,
	).Scan(&entry.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMissingProfile
		}
		return nil, fmt.Errorf("append progress: %w", err)
	}

	return &entry, nil
}

// List returns the user's entries, most recent first.
func (r *Repo) List(ctx context.Context, username string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, username, date, duration, heart_rate, body_temp, steps_taken, calories_burned
		FROM progress
		WHERE username = $1
		ORDER BY date DESC, id DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Username, &e.Date, &e.Duration, &e.HeartRate, &e.BodyTemp, &e.StepsTaken, &e.CaloriesBurned,
		); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
