// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/models"
)

// TokenCmd returns the token command. Chairs and admins get their
// sessions this way; delegates usually register over HTTP instead.
func TokenCmd() *cobra.Command {
	var (
		subject   string
		role      string
		committee string
		ttl       time.Duration
		secret    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if secret != "" {
				cfg.SessionSecret = secret
			}
			if ttl <= 0 {
				ttl = cfg.SessionTTL
			}
			r, ok := models.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q (delegate, chair or admin)", role)
			}
			if subject == "" {
				return errors.New("--subject is required")
			}

			sessions, err := auth.NewSessions(cfg.SessionSecret, ttl)
			if err != nil {
				return err
			}
			token, sess, err := sessions.Issue(auth.Session{Subject: subject, Role: r, CommitteeID: committee})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s valid for %s, expires %s\n",
				sess.Role, sess.Subject, sessions.TTL(), humanize.Time(sess.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject (user id) the token identifies")
	cmd.Flags().StringVar(&role, "role", string(models.RoleChair), "Role: delegate, chair or admin")
	cmd.Flags().StringVar(&committee, "committee", "", "Committee id carried in the token; chairs manage only this committee")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default $SESSION_TTL)")
	cmd.Flags().StringVar(&secret, "session-secret", "", "Signing secret (default $SESSION_SECRET)")
	return cmd
}
