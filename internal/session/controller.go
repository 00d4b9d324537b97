package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittracker/internal/estimator"
	"github.com/2beens/fittracker/internal/profiles"
	"github.com/2beens/fittracker/internal/progress"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/internal/users"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=controller_mocks_test.go -package=session_test

type credentialStore interface {
	Register(ctx context.Context, email, username, password string) (*users.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*users.User, error)
}

type profileStore interface {
	Upsert(ctx context.Context, p profiles.Profile) error
	Get(ctx context.Context, username string) (*profiles.Profile, error)
}

type progressStore interface {
	Append(ctx context.Context, username string, w progress.Workout, caloriesBurned float64) (*progress.Entry, error)
	List(ctx context.Context, username string) ([]progress.Entry, error)
}

type predictor interface {
	Predict(f estimator.Features) (float64, error)
}

type RegisterForm struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileForm struct {
	Gender string   `json:"gender"`
	Age    int      `json:"age"`
	Height int      `json:"height"`
	Weight int      `json:"weight"`
	BMI    *float64 `json:"bmi,omitempty"`
}

// ProgressView is what the progress page renders: the table newest first, the chart oldest first.
type ProgressView struct {
	Entries []progress.Entry `json:"entries"`
	Chart   []progress.Point `json:"chart"`
}

// Controller is the only place the stores and the estimator are used from.
type Controller struct {
	credentials credentialStore
	profiles    profileStore
	progress    progressStore
	predictor   predictor
	metrics     *metrics.Manager
}

func NewController(
	credentials credentialStore,
	profiles profileStore,
	progress progressStore,
	predictor predictor,
	metrics *metrics.Manager,
) *Controller {
	return &Controller{
		credentials: credentials,
		profiles:    profiles,
		progress:    progress,
		predictor:   predictor,
		metrics:     metrics,
	}
}

func (c *Controller) Register(ctx context.Context, s State, form RegisterForm) (State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.register")
	defer span.End()

	next, err := Transition(s, Event{Kind: EventRegistered})
	if err != nil {
		return s, err
	}

	if _, err := c.credentials.Register(ctx, form.Email, form.Username, form.Password); err != nil {
		if errors.Is(err, users.ErrDuplicateIdentity) {
			c.metrics.CounterRegistrationConflicts.Inc()
		} else if !errors.Is(err, users.ErrMissingFields) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return s, err
	}

	c.metrics.CounterRegistrations.Inc()
	log.Printf("new user registered: %s", form.Username)

	return next, nil
}

func (c *Controller) Login(ctx context.Context, s State, identifier, password string) (State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.login")
	defer span.End()

	if s.normalized().Page != PageLogin {
		return s, fmt.Errorf("%w: login on page %s", ErrInvalidTransition, s.Page)
	}

	user, err := c.credentials.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.metrics.CounterFailedLogins.Inc()
			log.Tracef("failed login attempt for [%s]", identifier)
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return s, err
	}

	next, err := Transition(s, LoginSucceeded(user.Username))
	if err != nil {
		return s, err
	}

	c.metrics.CounterLogins.Inc()
	span.SetAttributes(attribute.String("username", user.Username))

	return next, nil
}

func (c *Controller) Logout(s State) State {
	next, _ := Transition(s, Event{Kind: EventLogout})
	return next
}

// Navigate applies a user intent event. Outcome events (login_succeeded, registered) only come
// from Login and Register.
func (c *Controller) Navigate(s State, kind EventKind) (State, error) {
	switch kind {
	case EventGoRegister, EventGoLogin, EventViewProgress, EventGoHome, EventLogout:
		return Transition(s, Event{Kind: kind})
	default:
		return s, fmt.Errorf("%w: %q is not a navigation event", ErrInvalidTransition, kind)
	}
}

func (c *Controller) SaveProfile(ctx context.Context, s State, form ProfileForm) (*profiles.Profile, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.profile.save")
	defer span.End()

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	gender, err := profiles.ParseGender(form.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", profiles.ErrInvalidProfile, err)
	}

	p := profiles.Profile{
		Username: s.Username,
		Gender:   gender,
		Age:      form.Age,
		Height:   form.Height,
		Weight:   form.Weight,
		BMI:      form.BMI,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := c.profiles.Upsert(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &p, nil
}

func (c *Controller) Profile(ctx context.Context, s State) (*profiles.Profile, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return c.profiles.Get(ctx, s.Username)
}

// LogWorkout estimates the calories from the stored profile and the workout, then appends the entry.
func (c *Controller) LogWorkout(ctx context.Context, s State, w progress.Workout) (*progress.Entry, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.log")
	defer span.End()

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	profile, err := c.profiles.Get(ctx, s.Username)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return nil, progress.ErrMissingProfile
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("get profile: %w", err)
	}

	features := estimator.Features{
		Age:       float64(profile.Age),
		Height:    float64(profile.Height),
		Weight:    float64(profile.Weight),
		Duration:  float64(w.Duration),
		HeartRate: float64(w.HeartRate),
		BodyTemp:  w.BodyTemp,
		Steps:     float64(w.StepsTaken),
	}
	calories, err := c.predictor.Predict(features)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("predict calories: %w", err)
	}

	// MET estimate is informational only, the model output is what gets stored
	metCalories := estimator.METCalories(features.Weight, features.Duration, features.Steps, features.HeartRate)
	log.Debugf("workout [%s]: model %.2f kcal, met heuristic %.2f kcal", s.Username, calories, metCalories)

	entry, err := c.progress.Append(ctx, s.Username, w, calories)
	if err != nil {
		if !errors.Is(err, progress.ErrMissingProfile) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	c.metrics.CounterWorkoutsLogged.Inc()
	c.metrics.HistogramPredictedCalories.Observe(calories)

	return entry, nil
}

func (c *Controller) Progress(ctx context.Context, s State) (*ProgressView, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.progress")
	defer span.End()

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	entries, err := c.progress.List(ctx, s.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if entries == nil {
		entries = []progress.Entry{}
	}

	return &ProgressView{
		Entries: entries,
		Chart:   progress.ChartSeries(entries),
	}, nil
}
