package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"carsapp-api/internal/middleware"
	"carsapp-api/internal/model"
	"carsapp-api/internal/service"
	"carsapp-api/pkg/apierror"
	"carsapp-api/pkg/response"
)

const maxBodyBytes = 1 << 20

// writeServiceError maps service errors onto API errors. Anything not
// recognized is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Error(w, apierror.BadRequest(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, apierror.Unauthorized("Invalid credentials"))
	case errors.Is(err, service.ErrInvalidToken):
		response.Error(w, apierror.Unauthorized("Invalid token."))
	case errors.Is(err, service.ErrAlreadyRevoked):
		response.Error(w, apierror.Unauthorized("Token has already been invalidated."))
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, apierror.Forbidden("Unauthorized"))
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, apierror.NotFound("User not found"))
	case errors.Is(err, service.ErrCarNotFound):
		response.Error(w, apierror.NotFound("Car not found"))
	case errors.Is(err, service.ErrNotInFavorites):
		response.Error(w, apierror.NotFound("Car not found in favorites"))
	case errors.Is(err, service.ErrUserExists):
		response.Error(w, apierror.Conflict("User already exists"))
	case errors.Is(err, service.ErrAlreadyFavorite):
		response.Error(w, apierror.Conflict("Car already in favorites"))
	default:
		log.Printf("[Handler] %s %s failed (request_id=%s): %v",
			r.Method, r.URL.Path, middleware.GetRequestID(r.Context()), err)
		response.Error(w, apierror.InternalError(""))
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, apierror.BadRequest("Failed to parse request body"))
		return false
	}
	return true
}

// identity returns the caller attached by the access guard.
func identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Error(w, apierror.Unauthorized(""))
	}
	return id, ok
}
