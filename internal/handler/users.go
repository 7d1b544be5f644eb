package handler

import (
	"errors"
	"net/http"
	"strings"

	"carsapp-api/internal/metrics"
	"carsapp-api/internal/model"
	"carsapp-api/internal/service"
	"carsapp-api/pkg/apierror"
	"carsapp-api/pkg/response"
)

// UserHandler handles account, session and profile requests.
type UserHandler struct {
	auth    *service.AuthService
	cars    *service.CarService
	metrics *metrics.Metrics
}

// NewUserHandler creates a new user handler. m may be nil.
func NewUserHandler(auth *service.AuthService, cars *service.CarService, m *metrics.Metrics) *UserHandler {
	return &UserHandler{
		auth:    auth,
		cars:    cars,
		metrics: m,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber int64  `json:"phoneNumber"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

func (req RegisterRequest) missingFields() []apierror.FieldError {
	var fields []apierror.FieldError
	if strings.TrimSpace(req.Email) == "" {
		fields = append(fields, apierror.FieldError{Field: "email", Message: "is required"})
	}
	if req.Password == "" {
		fields = append(fields, apierror.FieldError{Field: "password", Message: "is required"})
	}
	return fields
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest carries the token to revoke in the body, not the header.
type LogoutRequest struct {
	Token string `json:"token"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, users)
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if fields := req.missingFields(); len(fields) > 0 {
		response.Error(w, apierror.ValidationError("email and password are required", fields...))
		return
	}

	user, token, err := h.auth.Register(r.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Username:    req.Username,
		Password:    req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.metrics.TokenIssued()
	response.Created(w, SessionResponse{User: user, Token: token})
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.metrics.TokenIssued()
	response.OK(w, SessionResponse{User: user, Token: token})
}

// Logout handles POST /logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.auth.Logout(r.Context(), req.Token)
	switch {
	case err == nil:
		h.metrics.Revocation(metrics.RevocationRevoked)
		response.Message(w, http.StatusOK, "Logout successful.")
		return
	case errors.Is(err, service.ErrInvalidToken):
		h.metrics.Revocation(metrics.RevocationInvalidToken)
	case errors.Is(err, service.ErrAlreadyRevoked):
		h.metrics.Revocation(metrics.RevocationAlreadyRevoked)
	default:
		h.metrics.Revocation(metrics.RevocationError)
	}
	writeServiceError(w, r, err)
}

// Profile handles GET /user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.auth.Profile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, user)
}

// SellingCars handles GET /user/selling-cars
func (h *UserHandler) SellingCars(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	cars, err := h.cars.SellingCars(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, map[string]interface{}{"sellingCars": cars})
}
