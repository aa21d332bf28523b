// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/goleak"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/store/sqlite"
	"github.com/danielhkuo/munvote/testutil"
)

func TestServeShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, testutil.GetTestConfig())
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		cancel()
		<-done
		t.Fatalf("Failed to reach server: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	transport.CloseIdleConnections()

	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeBadStore(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	cfg := testutil.GetTestConfig()
	cfg.DatabaseType = "mysql"

	if err := Serve(context.Background(), ln, cfg); err == nil {
		t.Error("Expected an error for an unsupported database type")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "DATABASE_TYPE", "SESSION_SECRET", "SESSION_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCmd(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", testutil.TestSessionSecret)

	out, err := execute(t, TokenCmd(), "--subject", "chair-1", "--role", "Chair", "--committee", "unsc", "--ttl", "1h")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	sessions, err := auth.NewSessions(testutil.TestSessionSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := sessions.Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Failed to parse printed token: %v", err)
	}
	if sess.Subject != "chair-1" || sess.Role != models.RoleChair || sess.CommitteeID != "unsc" {
		t.Errorf("Unexpected session %+v", sess)
	}
}

func TestTokenCmdReportsLifetime(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", testutil.TestSessionSecret)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"explicit ttl", []string{"--ttl", "90m"}, "valid for 1h30m0s"},
		{"environment ttl", nil, "valid for 12h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			cmd := TokenCmd()
			cmd.SetArgs(append([]string{"--subject", "admin-1", "--role", "admin"}, tt.args...))
			cmd.SetOut(io.Discard)
			cmd.SetErr(&stderr)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Failed to issue token: %v", err)
			}
			if !strings.Contains(stderr.String(), "admin admin-1 "+tt.want) {
				t.Errorf("Expected %q in %q", tt.want, stderr.String())
			}
		})
	}
}

func TestTokenCmdValidation(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		args   []string
	}{
		{"no subject", "s", []string{"--role", "admin"}},
		{"unknown role", "s", []string{"--subject", "x", "--role", "observer"}},
		{"no secret", "", []string{"--subject", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.secret != "" {
				t.Setenv("SESSION_SECRET", tt.secret)
			}
			if _, err := execute(t, TokenCmd(), tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestSchemaAndTallyCmd(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "munvote.db")

	out, err := execute(t, SchemaCmd(), "-d", path)
	if err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	if !strings.Contains(out, "Schema ready") {
		t.Errorf("Unexpected output %q", out)
	}

	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	res := testutil.CreateTestResolutionOfKind(t, st, models.KindDocument, models.VotingSimpleMajority, models.StatusActive)
	testutil.CastTestVote(t, st, res.ID, "d1", models.ChoiceYes)
	testutil.CastTestVote(t, st, res.ID, "d2", models.ChoiceYes)
	testutil.CastTestVote(t, st, res.ID, "d3", models.ChoiceNo)
	testutil.CastTestVote(t, st, res.ID, "d4", models.ChoiceAbstain)
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATABASE_URL", path)
	out, err = execute(t, TallyCmd(), res.ID)
	if err != nil {
		t.Fatalf("Failed to print tally: %v", err)
	}
	for _, want := range []string{res.ID, "for", "2", "50.0%", "against", "25.0%", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	if _, err := execute(t, TallyCmd(), "missing"); err == nil {
		t.Error("Expected an error for an unknown resolution")
	}
}

func TestSchemaCmdRequiresDatabase(t *testing.T) {
	clearEnv(t)
	if _, err := execute(t, SchemaCmd()); err == nil {
		t.Error("Expected an error without a database URL")
	}
}

func TestPrintTallyOutcome(t *testing.T) {
	var buf bytes.Buffer
	res := models.Resolution{
		ID:         "r1",
		Title:      "Closing",
		VotingType: models.VotingTwoThirds,
		Status:     models.StatusCompleted,
		Outcome:    models.OutcomeFailed,
		DueDate:    time.Now().Add(48 * time.Hour),
	}
	printTally(&buf, res, models.Tally{Kind: models.KindResolution, Yes: 1, No: 1, Total: 2})

	out := buf.String()
	for _, want := range []string{"r1 Closing", "two-thirds", "yes", "no", "abstain", "outcome:", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}
