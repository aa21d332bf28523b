// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cli holds the munvote subcommands.

	munvote serve -p 3318 -d munvote.db     run the HTTP API
	munvote schema -d postgres://... -t postgres
	munvote token --subject chair-1 --role chair
	munvote tally <resolution-id>

serve takes the cliparse flags as is. The other commands read DATABASE_URL,
DATABASE_TYPE, SESSION_SECRET and SESSION_TTL from the environment (or .env)
and accept flags that override them.
*/
package cli
