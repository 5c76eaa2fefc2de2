package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"plume/plume/config"
	"plume/plume/controllers"
	"plume/plume/middlewares"
	"plume/plume/services/llm"
	"plume/plume/utils/types"
)

// ChatRoutes wires the transcript operations. Everything here requires a
// session; the ws relay authenticates in-band instead (see stream.go).
func ChatRoutes(ctrl *controllers.ChatController, gen llm.Generator, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.Auth(cfg))

		// POST /chats : create a chat from the first user message,
		// respond 201 with the raw chat id.
		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req types.CreateChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request", http.StatusBadRequest)
				return
			}
			userID := middlewares.UserID(r.Context())
			id, err := ctrl.CreateChat(r.Context(), userID, req)
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(id.Hex()))
		})

		// GET /chats/{id} : full transcript, owner-scoped.
		gr.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := types.ParseChatID(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			userID := middlewares.UserID(r.Context())
			chat, err := ctrl.GetChat(r.Context(), userID, id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, chat)
		})

		// PUT /chats/{id} : append a finished exchange.
		gr.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := types.ParseChatID(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			var req types.AppendTurnRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request", http.StatusBadRequest)
				return
			}
			userID := middlewares.UserID(r.Context())
			if err := ctrl.AppendTurn(r.Context(), userID, id, req); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("chat updated"))
		})
	})

	// GET /chats/{id}/ws : stream a completion and persist it server-side.
	r.HandleFunc("/{id}/ws", streamHandler(ctrl, gen, cfg))

	return r
}

// UserChatRoutes serves the per-user chat index.
func UserChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.Auth(cfg))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		userID := middlewares.UserID(r.Context())
		summaries, err := ctrl.ListUserChats(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	})
	return r
}
