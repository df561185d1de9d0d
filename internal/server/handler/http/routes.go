package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/middleware"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth      *AuthHandler
	Health    *HealthHandler
	Inventory *InventoryHandler
	Users     *UserHandler

	// Authenticator resolves bearer tokens for the protected routes.
	Authenticator middleware.Authenticator

	// AllowedOrigins is the CORS allow list; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter constructs the HTTP handler serving the inventory API.
//
// Routes:
//
//	GET    /health                 public
//	POST   /auth/register          public
//	POST   /auth/login             public
//	GET    /vendors, /models, /locations, /devices, /devices/{id}
//	POST   /devices, PUT /devices/{id}
//	POST/PUT/DELETE on vendors, models, locations       admin
//	DELETE /devices/{id}                                admin
//	GET /users, GET /users/pending                      admin
//	POST /users/{id}/approve, PUT /users/{id}/approval  admin
//	DELETE /users/{id}                                  admin
//
// Middleware chain (applied in order):
//  1. RequestID               assigns X-Request-Id
//  2. WithRequestLogging      logs every request
//  3. Recoverer               turns panics into 500
//  4. CORS
//  5. AllowContentType        rejects non-JSON bodies
//  6. BearerAuth/RequireAdmin on the protected groups
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: h.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	}).Handler)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeCode(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeCode(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	// Public endpoints
	r.Get("/health", h.Health.Health)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	// Everything else needs a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(h.Authenticator))

		inv := h.Inventory
		r.Get("/vendors", inv.ListVendors)
		r.Get("/models", inv.ListModels)
		r.Get("/locations", inv.ListLocations)
		r.Get("/devices", inv.ListDevices)
		r.Get("/devices/{id}", inv.GetDevice)
		r.Post("/devices", inv.CreateDevice)
		r.Put("/devices/{id}", inv.UpdateDevice)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/vendors", inv.CreateVendor)
			r.Put("/vendors/{id}", inv.UpdateVendor)
			r.Delete("/vendors/{id}", inv.DeleteVendor)

			r.Post("/models", inv.CreateModel)
			r.Put("/models/{id}", inv.UpdateModel)
			r.Delete("/models/{id}", inv.DeleteModel)

			r.Post("/locations", inv.CreateLocation)
			r.Put("/locations/{id}", inv.UpdateLocation)
			r.Delete("/locations/{id}", inv.DeleteLocation)

			r.Delete("/devices/{id}", inv.DeleteDevice)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.List)
				r.Get("/pending", h.Users.ListPending)
				r.Post("/{id}/approve", h.Users.Approve)
				r.Put("/{id}/approval", h.Users.SetApproval)
				r.Delete("/{id}", h.Users.Delete)
			})
		})
	})

	return r
}
