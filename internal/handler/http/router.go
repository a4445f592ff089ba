package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/chatkit/push-dispatch-go/internal/handler/http/middleware"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
)

func NewRouter(sessions session.Service, pushHandler PushHandler, sessionHandler SessionHandler, serverHandler ServerHandler, eventsHandler EventsHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "push-dispatch"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// The provider webhook authenticates by payload signature, and the
		// pairing handshake is how a session token is obtained in the first
		// place; neither can sit behind the session guard.
		r.Post("/push", pushHandler.Receive)
		r.Post("/session", sessionHandler.Open)

		// Requires a paired session
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(sessions.JWTAuth()))
			r.Use(middleware.SessionRequired(sessions.JWTAuth()))

			r.Post("/notifications/opened", pushHandler.Opened)

			r.Route("/calls/{conference_id}", func(r chi.Router) {
				r.Post("/answer", pushHandler.AnswerCall)
				r.Post("/decline", pushHandler.DeclineCall)
			})

			r.Get("/events", eventsHandler.Stream)

			r.Route("/servers", func(r chi.Router) {
				r.Get("/", serverHandler.List)
				r.Post("/", serverHandler.Register)
				r.Delete("/{server_id}", serverHandler.Remove)
			})
		})
	})
	return r
}
