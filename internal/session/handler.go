package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/fittracker/internal/profiles"
	"github.com/2beens/fittracker/internal/progress"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/internal/users"
	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
)

const TokenHeader = "X-FIT-TOKEN"

var (
	errBadRequest   = errors.New("bad request")
	errBodyTooLarge = errors.New("request body too large")
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=session_test

type sessionStore interface {
	Create(ctx context.Context, state State) (string, error)
	Load(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, state State) error
	Delete(ctx context.Context, token string) error
}

type Handler struct {
	controller *Controller
	sessions   sessionStore
}

func NewHandler(controller *Controller, sessions sessionStore) *Handler {
	return &Handler{
		controller: controller,
		sessions:   sessions,
	}
}

type newSessionResponse struct {
	Token string `json:"token"`
	State State  `json:"state"`
}

type navigateRequest struct {
	Event EventKind `json:"event"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handler) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.new")
	defer span.End()

	state := NewState()
	token, err := h.sessions.Create(ctx, state)
	if err != nil {
		log.Errorf("create session: %s", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, newSessionResponse{Token: token, State: state}, http.StatusCreated)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, state, http.StatusOK)
}

func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	token, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	next, err := h.controller.Navigate(state, req.Event)
	if err != nil {
		writeError(w, err)
		return
	}

	h.saveAndRespond(w, r, token, next, http.StatusOK)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	token, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var form RegisterForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, err)
		return
	}

	next, err := h.controller.Register(r.Context(), state, form)
	if err != nil {
		writeError(w, err)
		return
	}

	h.saveAndRespond(w, r, token, next, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	token, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	next, err := h.controller.Login(r.Context(), state, req.Identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("user [%s] logged in", next.Username)
	h.rotateAndRespond(w, r, token, next)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	if state.Authenticated() {
		log.Printf("user [%s] logging out", state.Username)
	}
	h.rotateAndRespond(w, r, token, h.controller.Logout(state))
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	p, err := h.controller.Profile(r.Context(), state)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, p, http.StatusOK)
}

func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var form ProfileForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.controller.SaveProfile(r.Context(), state, form)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, p, http.StatusOK)
}

// HandleSuggestBMI only computes a value for the form, nothing is stored.
func (h *Handler) HandleSuggestBMI(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.Atoi(r.URL.Query().Get("height"))
	if err != nil {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return
	}
	weight, err := strconv.Atoi(r.URL.Query().Get("weight"))
	if err != nil {
		http.Error(w, "invalid weight", http.StatusBadRequest)
		return
	}

	bmi, err := profiles.CalculateBMI(height, weight)
	if err != nil {
		writeError(w, err)
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"bmi":%.1f}`, bmi))
}

func (h *Handler) HandleLogWorkout(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	var workout progress.Workout
	if err := decodeJSON(r, &workout); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.controller.LogWorkout(r.Context(), state, workout)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, entry, http.StatusCreated)
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	view, err := h.controller.Progress(r.Context(), state)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, view, http.StatusOK)
}

func (h *Handler) loadState(w http.ResponseWriter, r *http.Request) (string, State, bool) {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", State{}, false
	}

	state, err := h.sessions.Load(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return "", State{}, false
	}

	return token, state, true
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, token string, state State, status int) {
	if err := h.sessions.Save(r.Context(), token, state); err != nil {
		writeError(w, fmt.Errorf("save session: %w", err))
		return
	}
	writeJSON(w, state, status)
}

// rotateAndRespond moves the new state to a fresh token whenever authentication changes.
// The old token is deleted, a failed delete is only logged since it still holds the old state.
func (h *Handler) rotateAndRespond(w http.ResponseWriter, r *http.Request, oldToken string, state State) {
	token, err := h.sessions.Create(r.Context(), state)
	if err != nil {
		writeError(w, fmt.Errorf("create session: %w", err))
		return
	}
	if err := h.sessions.Delete(r.Context(), oldToken); err != nil {
		log.Errorf("delete rotated session: %s", err)
	}
	writeJSON(w, newSessionResponse{Token: token, State: state}, http.StatusOK)
}

func decodeJSON(r *http.Request, into any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, maxBytesErr.Limit)
		}
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	resp, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, status)
}

// StatusFor maps controller and store errors to the HTTP status the client sees.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, users.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, users.ErrInvalidCredentials),
		errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrUnknownSession):
		return http.StatusUnauthorized
	case errors.Is(err, progress.ErrMissingProfile):
		return http.StatusPreconditionFailed
	case errors.Is(err, profiles.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, errBadRequest),
		errors.Is(err, users.ErrMissingFields),
		errors.Is(err, profiles.ErrInvalidProfile),
		errors.Is(err, progress.ErrInvalidWorkout):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %s", err)
		http.Error(w, "internal server error", status)
		return
	}
	log.Tracef("request rejected [%d]: %s", status, err)
	http.Error(w, err.Error(), status)
}
