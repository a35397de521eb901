// Package handlers holds the pieces of the HTTP layer that are not
// route handlers: the aggregated health probe and the reusable
// middleware (API key auth, security headers, body size limits).
//
// Health probes fan out in parallel, each under its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	status := checker.Check(ctx)
//
// The /health endpoint serializes the returned HealthStatus directly;
// /ready uses the Ready flag alone.
//
// Middleware wraps individual routes rather than the whole mux, so the
// operational endpoints can require an API key while the player-facing
// routes stay open:
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.HTTP.APIKeys)
//	mux.Handle("POST /api/v1/accounts/{id}/reset", auth.Middleware(reset))
package handlers
