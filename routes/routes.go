package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/at-fk/finalproject/app"
	"github.com/at-fk/finalproject/handlers"
	appmw "github.com/at-fk/finalproject/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// requestTimeout bounds non-streaming requests; answer streams carry their own deadline
const requestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(appmw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.ProviderRegistry, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	searchHandler := handlers.NewSearchHandler(deps.Search, deps.Logger)
	askHandler := handlers.NewAskHandler(deps.Answer, deps.Config.Answer.StreamTimeout, deps.Logger)
	articleHandler := handlers.NewArticleHandler(deps.Articles, deps.Structure, deps.Logger)
	embeddingHandler := handlers.NewEmbeddingHandler(deps.Embedder, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.IdentityMiddleware.CallerIdentity)

		r.Route("/search", func(r chi.Router) {
			if deps.RateLimitMiddleware != nil {
				r.Use(deps.RateLimitMiddleware.Limit)
			}
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/", searchHandler.HandleSearch)
			r.Get("/", searchHandler.HandleKeywordSearch)
		})

		r.Post("/ask", askHandler.HandleAsk)
		r.Post("/ask/semantic", askHandler.HandleSemanticAsk)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/embedding", embeddingHandler.HandleEmbedding)
			r.Get("/articles/{id}", articleHandler.HandleGetArticle)
			r.Get("/regulations/{id}/structure", articleHandler.HandleGetStructure)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
