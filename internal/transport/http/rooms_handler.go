package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/HAN2S/Houps/internal/app"
	"github.com/HAN2S/Houps/internal/domain"
)

// RoomsHandler exposes the minimal HTTP surface needed before a websocket
// exists: room creation and the category catalog.
type RoomsHandler struct {
	service *app.GameService
}

func NewRoomsHandler(service *app.GameService) *RoomsHandler {
	return &RoomsHandler{service: service}
}

type createRoomRequest struct {
	Username    string              `json:"username"`
	AvatarURL   string              `json:"avatarUrl"`
	Settings    domain.GameSettings `json:"settings"`
	CategoryIDs []int64             `json:"categoryIds"`
}

// CreateRoom handles POST /rooms.
func (h *RoomsHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.CreateSession(r.Context(), req.Username, req.AvatarURL, req.Settings, req.CategoryIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Categories handles GET /categories?lang=.
func (h *RoomsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	categories, err := h.service.Categories(r.Context(), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
