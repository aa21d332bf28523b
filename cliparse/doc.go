// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[2:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - SessionSecret: HS256 signing secret for session tokens (required)
  - SessionTTL: Lifetime of issued session tokens (default: 12h)
  - AllowedOrigin: Value of Access-Control-Allow-Origin (default: echo the request origin)

# Environment Variables

Values are read from the environment first:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SESSION_SECRET → -session-secret
	SESSION_TTL    → -session-ttl
	ALLOWED_ORIGIN → -origin

CLI flags take precedence over environment variables. LoadDotEnv fills
unset variables from a .env file before parsing.

# Validation

ParseFlags returns an error if DATABASE_URL or SESSION_SECRET is missing,
the port is out of range or the database type is unknown.
*/
package cliparse
