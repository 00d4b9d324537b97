//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/2beens/fittracker/internal/profiles"
	"github.com/2beens/fittracker/internal/progress"
	"github.com/2beens/fittracker/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRegisterLoginLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(ctx, t)
	c.signUp("alice@example.com", "alice", "pw")

	// same email or username again
	other := newClient(ctx, t)
	_, status := other.navigate(session.EventGoRegister)
	require.Equal(t, http.StatusOK, status)
	_, status = other.register("alice@example.com", "alice2", "pw")
	assert.Equal(t, http.StatusConflict, status)
	_, status = other.register("alice2@example.com", "alice", "pw")
	assert.Equal(t, http.StatusConflict, status)

	// back on the login page, email works as identifier too
	_, status = other.navigate(session.EventGoLogin)
	require.Equal(t, http.StatusOK, status)
	_, status = other.login("alice@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
	anonymousToken := other.token
	state, status := other.login("alice@example.com", "pw")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", state.Username)
	assert.NotEqual(t, anonymousToken, other.token)

	// the pre-login token does not carry the login
	other.token = anonymousToken
	status = other.do(http.MethodGet, "/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	loggedInToken := c.token
	loggedOut, status := c.logout()
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, session.NewState(), loggedOut)
	assert.NotEqual(t, loggedInToken, c.token)

	// logged out sessions can not reach user data
	status = c.do(http.MethodGet, "/progress", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// the token used while logged in is gone
	c.token = loggedInToken
	status = c.do(http.MethodGet, "/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var stored int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE username = 'alice'`).Scan(&stored))
	assert.Equal(t, 1, stored)
}

func (s *IntegrationTestSuite) TestWorkoutNeedsProfile() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(ctx, t)
	c.signUp("bob@example.com", "bob", "pw")

	status := c.do(http.MethodPost, "/progress", progress.Workout{
		Duration:   30,
		HeartRate:  120,
		BodyTemp:   37.0,
		StepsTaken: 1000,
	}, nil)
	assert.Equal(t, http.StatusPreconditionFailed, status)

	status = c.do(http.MethodGet, "/profile", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM progress WHERE username = 'bob'`).Scan(&rows))
	assert.Zero(t, rows)
}

func (s *IntegrationTestSuite) TestProfileAndProgress() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(ctx, t)
	c.signUp("carol@example.com", "carol", "pw")

	bmi := 22.9
	var saved profiles.Profile
	status := c.do(http.MethodPut, "/profile", session.ProfileForm{
		Gender: "Female",
		Age:    31,
		Height: 168,
		Weight: 65,
		BMI:    &bmi,
	}, &saved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, profiles.GenderFemale, saved.Gender)

	// upsert replaces every field, bmi included
	status = c.do(http.MethodPut, "/profile", session.ProfileForm{
		Gender: "female",
		Age:    32,
		Height: 168,
		Weight: 64,
	}, &saved)
	require.Equal(t, http.StatusOK, status)

	var got profiles.Profile
	status = c.do(http.MethodGet, "/profile", nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 32, got.Age)
	assert.Equal(t, 64, got.Weight)
	assert.Nil(t, got.BMI)

	status = c.do(http.MethodPut, "/profile", session.ProfileForm{Gender: "other", Age: 32, Height: 168, Weight: 64}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var entry progress.Entry
	status = c.do(http.MethodPost, "/progress", progress.Workout{
		Duration:   30,
		HeartRate:  120,
		BodyTemp:   37.0,
		StepsTaken: 1000,
	}, &entry)
	require.Equal(t, http.StatusCreated, status)
	// 30 min * 10 + 1000 steps * 0.01
	assert.Equal(t, 310.0, entry.CaloriesBurned)
	assert.Equal(t, "carol", entry.Username)

	status = c.do(http.MethodPost, "/progress", progress.Workout{
		Duration:   45,
		HeartRate:  130,
		BodyTemp:   37.2,
		StepsTaken: 0,
	}, &entry)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 450.0, entry.CaloriesBurned)

	status = c.do(http.MethodPost, "/progress", progress.Workout{Duration: 0, HeartRate: 120, BodyTemp: 37}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	state, status := c.navigate(session.EventViewProgress)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, session.PageProgress, state.Page)

	var view session.ProgressView
	status = c.do(http.MethodGet, "/progress", nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Entries, 2)
	require.Len(t, view.Chart, 2)
	// same day: newest entry first in the table
	assert.Equal(t, 450.0, view.Entries[0].CaloriesBurned)
	assert.Equal(t, 310.0, view.Entries[1].CaloriesBurned)

	// the stored calories are the model output, nothing else is kept per workout
	var calories float64
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT calories_burned FROM progress WHERE username = 'carol' ORDER BY id LIMIT 1`,
	).Scan(&calories))
	assert.Equal(t, 310.0, calories)

	state, status = c.navigate(session.EventGoHome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, session.PageHome, state.Page)
}

func (s *IntegrationTestSuite) TestInvalidNavigation() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(ctx, t)

	_, status := c.navigate(session.EventViewProgress)
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = c.navigate(session.EventLoginSucceeded)
	assert.Equal(t, http.StatusBadRequest, status)

	// login is only possible from the login page
	_, status = c.navigate(session.EventGoRegister)
	require.Equal(t, http.StatusOK, status)
	_, status = c.login("nobody", "pw")
	assert.Equal(t, http.StatusBadRequest, status)
}
