// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/cliparse"
	"github.com/danielhkuo/munvote/handlers"
	"github.com/danielhkuo/munvote/metrics"
	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/voting"
)

// NewRouter wires every endpoint onto st. Collectors are registered on reg,
// which is also what /metrics serves.
func NewRouter(st voting.Store, sessions *auth.Sessions, cfg cliparse.Config, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	m := metrics.New(reg)

	// Initialize services and handlers
	manager := voting.NewManager(st, voting.WithMetrics(m))
	ledger := voting.NewLedger(st, voting.WithMetrics(m))

	resolutionHandler := handlers.NewResolutionHandler(manager)
	votingHandler := handlers.NewVotingHandler(ledger)
	delegateHandler := handlers.NewDelegateHandler(st, sessions)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(reg))

	// Resolution reads (public)
	mux.HandleFunc("GET /resolutions", middleware.WithLogging(resolutionHandler.List))
	mux.HandleFunc("GET /resolutions/{id}", middleware.WithLogging(resolutionHandler.Get))
	mux.HandleFunc("GET /resolutions/event/{eventId}", middleware.WithLogging(resolutionHandler.ListByEvent))
	mux.HandleFunc("GET /resolutions/block/{blockId}", middleware.WithLogging(resolutionHandler.ListByBlock))
	mux.HandleFunc("GET /resolutions/committee/{committeeId}", middleware.WithLogging(resolutionHandler.ListByCommittee))

	// Resolution lifecycle (session required, roles checked by the manager)
	mux.HandleFunc("POST /resolutions", middleware.WithLogging(middleware.RequireSession(resolutionHandler.Submit)))
	mux.HandleFunc("PUT /resolutions/{id}/status", middleware.WithLogging(middleware.RequireSession(resolutionHandler.UpdateStatus)))
	mux.HandleFunc("POST /resolutions/{id}/start", middleware.WithLogging(middleware.RequireSession(resolutionHandler.Start)))
	mux.HandleFunc("POST /resolutions/{id}/end", middleware.WithLogging(middleware.RequireSession(resolutionHandler.End)))
	mux.HandleFunc("POST /resolutions/{id}/reject", middleware.WithLogging(middleware.RequireSession(resolutionHandler.Reject)))
	mux.HandleFunc("DELETE /resolutions/{id}", middleware.WithLogging(middleware.RequireSession(resolutionHandler.Delete)))

	// Voting
	mux.HandleFunc("POST /resolutions/{id}/votes", middleware.WithLogging(middleware.RequireSession(votingHandler.CastVote)))
	mux.HandleFunc("POST /votes", middleware.WithLogging(middleware.RequireSession(votingHandler.Cast)))
	// votes, tally and has-voted share one pattern; a literal third segment
	// would overlap /resolutions/event/{eventId} and friends
	mux.HandleFunc("GET /resolutions/{id}/{view}", middleware.WithLogging(votingHandler.Subresource))

	// Delegates
	mux.HandleFunc("POST /delegates/register", middleware.WithLogging(delegateHandler.Register))
	mux.HandleFunc("GET /delegates/me", middleware.WithLogging(middleware.RequireSession(delegateHandler.GetMe)))
	mux.HandleFunc("GET /committees/{id}/delegates", middleware.WithLogging(delegateHandler.ListCommittee))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("munvote API v1"))
	})

	var handler http.Handler = mux
	handler = middleware.WithSession(sessions)(handler)
	handler = middleware.WithMetrics(m, handler)
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	return handler
}
