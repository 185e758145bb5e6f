package router

import (
	"log"
	"net/http"

	"github.com/bersih-laundry/api/internal/config"
	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/handler"
	mw "github.com/bersih-laundry/api/internal/middleware"
	"github.com/bersih-laundry/api/internal/service"
	"github.com/bersih-laundry/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, outlet scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",            // SvelteKit dev server
			"https://app.bersihlaundry.id",     // Production dashboard
			"https://stg-app.bersihlaundry.id", // Staging dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/outlets/{oid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Staff management (OWNER and ADMIN, not outlet-scoped)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("OWNER", "ADMIN"))
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Cross-outlet reports (OWNER only, checked in the handler too)
		reportsHandler := handler.NewReportsHandler(queries)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("OWNER"))
			r.Route("/reports", reportsHandler.RegisterOwnerRoutes)
		})

		// Outlet management (list/get for any authenticated user,
		// create/update restricted to OWNER)
		outletHandler := handler.NewOutletHandler(queries)
		r.Get("/outlets", outletHandler.List)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("OWNER"))
			r.Post("/outlets", outletHandler.Create)
			r.Put("/outlets/{oid}", outletHandler.Update)
		})

		// Outlet-scoped routes
		r.Route("/outlets/{oid}", func(r chi.Router) {
			r.Use(mw.RequireOutlet)

			r.Get("/", outletHandler.Get)

			// Service catalog
			serviceHandler := handler.NewServiceHandler(queries)
			r.Route("/services", serviceHandler.RegisterRoutes)

			// Promotions
			promotionHandler := handler.NewPromotionHandler(queries)
			r.Route("/promotions", promotionHandler.RegisterRoutes)

			// Customers
			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)

			// Revenue reports (managers only)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole("OWNER", "ADMIN"))
				r.Route("/reports", reportsHandler.RegisterRoutes)
			})

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, newOrderStore)
			orderHandler := handler.NewOrderHandler(
				orderService,
				queries,
				pool,
				func(db database.DBTX) handler.OrderStore {
					return database.New(db)
				},
				hub,
			)
			r.Route("/orders", func(r chi.Router) {
				orderHandler.RegisterRoutes(r)

				// Payments (nested under orders)
				r.Route("/{id}/payments", func(r chi.Router) {
					paymentHandler := handler.NewPaymentHandler(
						queries,
						pool,
						func(db database.DBTX) handler.PaymentStore {
							return database.New(db)
						},
						hub,
					)
					paymentHandler.RegisterRoutes(r)
				})
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
