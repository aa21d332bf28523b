// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies delegate session tokens.

# Sessions

Sessions are HS256 JWTs signed with the configured secret:

	sessions, err := auth.NewSessions(secret, 12*time.Hour)
	token, sess, err := sessions.Issue(auth.Session{
		Subject: delegateID,
		Role:    models.RoleDelegate,
	})

	sess, err = sessions.Parse(token)

Tokens carry the subject, role, committee and expiry. Parse rejects any
other signing method, a foreign issuer and expired tokens (ErrExpiredToken).
The subject is the voter identity; handlers never take it from the
request body.

# ID Generation

Random hex IDs for token ids:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
