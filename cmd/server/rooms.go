package main

import (
	"net/http"

	"go.uber.org/zap"
)

type createRoomResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// handleCreateRoom handles POST /api/new
func (app *application) handleCreateRoom(w http.ResponseWriter, _ *http.Request) {
	id, err := app.Manager.CreateRoom()
	if err != nil {
		app.Logger.Error("create room", zap.Error(err))
		http.Error(w, "could not create room", http.StatusInternalServerError)
		return
	}

	app.writeJSON(w, http.StatusOK, createRoomResponse{ID: id, URL: "/?room=" + id})
}

// handleListRooms handles GET /api/rooms
func (app *application) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	app.writeJSON(w, http.StatusOK, app.Manager.Lobby())
}
