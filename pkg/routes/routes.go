package routes

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rahulxs/ping-chat/pkg/auth"
	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/handlers"
	"github.com/rahulxs/ping-chat/pkg/hub"
)

func NewRouter(h *hub.Hub, svc *chat.Service, allowedOrigins []string, rps float64, burst int) http.Handler {
	mux := http.NewServeMux()

	messageHandler := handlers.NewMessageHandler(svc)
	userHandler := handlers.NewUserHandler(svc, h)

	// Liveness and metrics (no auth required)
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Server is live"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// WebSocket endpoint; identity comes from the handshake query
	mux.HandleFunc("GET /ws", handlers.HandleWS(h))

	// API endpoints with identity middleware
	apiRouter := http.NewServeMux()
	apiRouter.HandleFunc("GET /api/messages/users", userHandler.GetConversationPartners)
	apiRouter.HandleFunc("GET /api/messages/online", userHandler.GetOnlineUsers)
	apiRouter.HandleFunc("GET /api/messages/{id}", messageHandler.FetchThread)
	apiRouter.HandleFunc("PUT /api/messages/mark/{id}", messageHandler.MarkSeen)
	apiRouter.HandleFunc("POST /api/messages/send/{id}", messageHandler.SendMessage)
	apiRouter.HandleFunc("POST /api/messages/call-log", messageHandler.RecordCallLog)
	apiRouter.HandleFunc("DELETE /api/messages/delete/{id}", messageHandler.DeleteMessage)

	limited := auth.RateLimit(rps, burst)(apiRouter)
	mux.Handle("/api/messages/", auth.Middleware(limited))

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(mux)
}
