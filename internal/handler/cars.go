package handler

import (
	"net/http"

	"carsapp-api/internal/model"
	"carsapp-api/internal/service"
	"carsapp-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CarHandler handles listing and favorites requests.
type CarHandler struct {
	cars *service.CarService
}

// NewCarHandler creates a new car handler.
func NewCarHandler(cars *service.CarService) *CarHandler {
	return &CarHandler{cars: cars}
}

// CarRequest represents the request body for creating a listing.
type CarRequest struct {
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Price       float64  `json:"price"`
	Pictures    []string `json:"pictures"`
	Description string   `json:"description"`
}

// FavoriteRequest represents the request body for adding a favorite.
type FavoriteRequest struct {
	CarID string `json:"carId"`
}

// CarWithOwner is returned by create, delete and the owner's view of a car.
type CarWithOwner struct {
	Car  interface{} `json:"car"`
	User *model.User `json:"user,omitempty"`
}

// FavoriteResponse is returned when a favorite is added.
type FavoriteResponse struct {
	Message string           `json:"message"`
	Car     model.CarSummary `json:"car"`
}

// List handles GET /cars
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, cars)
}

// Search handles GET /cars/search?query=
func (h *CarHandler) Search(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, cars)
}

// Get handles GET /cars/{id}. Only the owner sees the owner's details.
func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	details, owned, err := h.cars.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if owned {
		response.OK(w, CarWithOwner{Car: details, User: details.User})
		return
	}
	response.OK(w, CarWithOwner{Car: details.Car})
}

// Create handles POST /cars
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	car, owner, err := h.cars.Create(r.Context(), id, service.CarInput{
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Price:       req.Price,
		Pictures:    req.Pictures,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, CarWithOwner{Car: car, User: owner})
}

// Delete handles DELETE /cars/{id}
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	car, owner, err := h.cars.Delete(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, CarWithOwner{Car: car, User: owner})
}

// AddFavorite handles POST /users/favorites
func (h *CarHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	car, err := h.cars.AddFavorite(r.Context(), id, req.CarID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, FavoriteResponse{
		Message: "Car added to favorites",
		Car:     car.Summary(),
	})
}

// Favorites handles GET /users/favoriteCars
func (h *CarHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	cars, err := h.cars.Favorites(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, cars)
}

// RemoveFavorite handles DELETE /users/favorites/{id}
func (h *CarHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.cars.RemoveFavorite(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Car removed from favorites")
}
