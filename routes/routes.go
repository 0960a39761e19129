package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/meterops/handlers"
	"p9e.in/meterops/middleware"
	"p9e.in/meterops/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods("POST")
	r.HandleFunc("/api/auth/register", handlers.Register).Methods("POST")
	r.HandleFunc("/api/auth/token", handlers.GetCurrentUser).Methods("GET")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/meters", handlers.GetMeters).Methods("GET")
	api.HandleFunc("/meters/update-status", handlers.UpdateMeterStatus).Methods("POST")
	api.HandleFunc("/meters/sync", handlers.SyncMeters).Methods("POST")
	api.HandleFunc("/meters/assign", handlers.AssignMeters).Methods("POST")
	api.HandleFunc("/meters/export/geojson", handlers.ExportMetersGeoJSON).Methods("GET")
	api.HandleFunc("/meters/{id:[0-9]+}", handlers.ReplaceMeterStatus).Methods("PATCH")
	api.HandleFunc("/readers", handlers.GetReaders).Methods("GET")

	// =====================================================
	// Supervisor Routes (bulk import and destructive ops)
	// =====================================================
	supervisor := []string{models.RoleSupervisor}
	api.Handle("/meters/upload",
		middleware.RequireRole(supervisor, http.HandlerFunc(handlers.UploadMeters))).Methods("POST")
	api.Handle("/meters/all",
		middleware.RequireRole(supervisor, http.HandlerFunc(handlers.ClearAllMeters))).Methods("DELETE")

	return r
}
