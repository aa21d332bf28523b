// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics defines the Prometheus collectors for votes, status
// transitions and HTTP latency, and the /metrics handler.
package metrics
