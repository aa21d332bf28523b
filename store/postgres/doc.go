// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package postgres implements the voting store on lib/pq.
//
// Vote inserts take FOR SHARE on the resolution row and status changes
// take FOR UPDATE, so a tally frozen by a transition includes every vote
// that was accepted.
package postgres
