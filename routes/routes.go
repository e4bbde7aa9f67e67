package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/efootball-tournament/handlers"
	"github.com/Dosada05/efootball-tournament/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Bracket     *handlers.BracketHandler
	Round       *handlers.RoundHandler
	Match       *handlers.MatchHandler
	Participant *handlers.ParticipantHandler
	Tournament  *handlers.TournamentHandler
	WebSocket   *handlers.WebSocketHandler
	// Events - SSE-поток комнат; nil отключает /events
	Events http.Handler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// websocket живёт вне таймаута: соединение долгое
	router.Get("/ws", h.WebSocket.ServeLanding)
	router.Get("/ws/matches/{matchID}", h.WebSocket.ServeMatch)
	if h.Events != nil {
		router.Get("/events/*", h.Events.ServeHTTP)
	}

	router.Get("/swagger/doc.json", handlers.ServeOpenAPI)
	router.Get("/swagger/*", handlers.SwaggerUI())

	authenticate := middleware.Authenticate(opts.JWTSecret)
	staff := middleware.Authorize(middleware.RoleAdmin, middleware.RoleSuperAdmin)
	superAdmin := middleware.Authorize(middleware.RoleSuperAdmin)

	router.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		// Публичные маршруты: сетка, матчи, конфигурация
		r.Get("/health", h.Tournament.Health)
		r.Get("/tournament/config", h.Tournament.GetConfig)
		r.Get("/bracket", h.Bracket.GetBracket)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, superAdmin)
			r.Post("/bracket/seed", h.Bracket.SeedRound1)
			r.Post("/bracket/export", h.Bracket.ExportBracket)
		})

		r.Route("/rounds", func(r chi.Router) {
			r.Get("/", h.Round.ListRounds)
			r.Get("/{roundID}", h.Round.GetRound)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, staff)
				r.Patch("/{roundID}", h.Round.UpdateRound)
				r.Delete("/{roundID}", h.Round.DeleteRound)
				r.Post("/{roundID}/advance", h.Round.AdvanceRound)
				r.Post("/{roundID}/try-advance", h.Round.TryAdvanceRound)
			})

			r.With(authenticate, superAdmin).Post("/", h.Round.CreateRound)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMatches)
			r.With(authenticate, superAdmin).Get("/suggested", h.Match.SuggestedMatches)
			r.Get("/{matchID}", h.Match.GetMatch)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, staff)
				r.Patch("/{matchID}", h.Match.UpdateMatch)
				r.Delete("/{matchID}", h.Match.DeleteMatch)
				r.Post("/{matchID}/start", h.Match.StartMatch)
				r.Post("/{matchID}/events", h.Match.RecordEvent)
				r.Post("/{matchID}/end", h.Match.EndMatch)
				r.Post("/{matchID}/publish", h.Match.PublishMatch)
			})

			r.With(authenticate, superAdmin).Post("/", h.Match.CreateMatch)
		})

		r.Route("/participants", func(r chi.Router) {
			r.Use(authenticate)
			r.With(superAdmin).Post("/", h.Participant.Register)

			r.Group(func(r chi.Router) {
				r.Use(staff)
				r.Get("/active", h.Participant.ListActive)
				r.Get("/ranked", h.Participant.ListRanked)
				r.Post("/{participantID}/eliminate", h.Participant.Eliminate)
			})
		})
	})
}
