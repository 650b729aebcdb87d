package server

import (
	"net/http"

	"resumind/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	// Session-guarded API routes
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.sessionMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	if s.Auth != nil {
		mux.HandleFunc("GET /auth", s.Auth.SignInPageHandler())
		mux.HandleFunc("POST /auth/signin", s.Auth.SignInHandler())
		mux.HandleFunc("POST /auth/signout", s.Auth.SignOutHandler())
	}

	mux.HandleFunc("POST /api/v1/resumes", protected(s.createReviewHandler(om)))
	mux.HandleFunc("GET /api/v1/resumes", protected(s.listResumesHandler))
	mux.HandleFunc("GET /api/v1/resumes/{id}", protected(s.getResumeHandler))
	mux.HandleFunc("GET /api/v1/resumes/{id}/report", protected(s.reportHandler))
	mux.HandleFunc("GET /api/v1/resumes/{id}/export.pdf", protected(s.createExportPDFHandler(om)))
	mux.HandleFunc("GET /api/v1/resumes/{id}/export.json", protected(s.createExportJSONHandler(om)))
	mux.HandleFunc("GET /api/v1/resumes/{id}/pages/{page}", protected(s.pageImageHandler))
	mux.HandleFunc("POST /api/v1/resumes/{id}/email", protected(s.emailHandler))
	mux.HandleFunc("GET /api/v1/usage", protected(s.usageHandler))

	return mux
}

// sessionMiddleware requires a valid session cookie when auth is configured
func (s *Server) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.Auth == nil {
		return next
	}

	guarded := s.Auth.Guard(next)
	return func(w http.ResponseWriter, r *http.Request) {
		guarded.ServeHTTP(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}
