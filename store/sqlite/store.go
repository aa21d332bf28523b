// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	dbschema "github.com/danielhkuo/munvote/db"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/voting"
)

// defaultParams enable foreign keys and take the write lock when a
// transaction begins, so read-check-write sequences are serialized.
var defaultParams = []struct{ key, value string }{
	{"_pragma", "foreign_keys(1)"},
	{"_pragma", "busy_timeout(5000)"},
	{"_txlock", "immediate"},
}

// withDefaultParams appends each default the DSN does not already set.
// A pragma counts as set when the DSN names it with any value.
func withDefaultParams(dsn string) (string, error) {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn query: %w", err)
	}
	var missing []string
	for _, p := range defaultParams {
		if !hasParam(query, p.key, p.value) {
			missing = append(missing, p.key+"="+p.value)
		}
	}
	if len(missing) == 0 {
		return dsn, nil
	}
	if rawQuery != "" {
		rawQuery += "&"
	}
	return base + "?" + rawQuery + strings.Join(missing, "&"), nil
}

func hasParam(query url.Values, key, value string) bool {
	if key != "_pragma" {
		return query.Has(key)
	}
	name, _, _ := strings.Cut(value, "(")
	for _, v := range query[key] {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), name) {
			return true
		}
	}
	return false
}

// Store persists resolutions, votes and delegates in SQLite.
type Store struct {
	sqlDB *sql.DB
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database on a single connection.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn, err := withDefaultParams(path)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if strings.HasPrefix(path, ":memory:") {
		// every new connection would see an empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := dbschema.CreateSchema(sqlDB, dbschema.TypeSQLite); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const resolutionColumns = `id, kind, title, description, author_id, country_id, committee_id,
	event_id, submission_block_id, voting_type, status, submitted_at, due_date,
	voting_started_at, voting_ended_at, final_yes, final_no, final_abstain, outcome`

type scanner interface {
	Scan(dest ...any) error
}

func scanResolution(row scanner) (models.Resolution, error) {
	var (
		res                 models.Resolution
		kind, vtype, status string
		submitted, due      int64
		started, ended      sql.NullInt64
		finalYes, finalNo   sql.NullInt64
		finalAbstain        sql.NullInt64
		outcome             sql.NullString
	)
	err := row.Scan(
		&res.ID, &kind, &res.Title, &res.Description, &res.AuthorID, &res.CountryID, &res.CommitteeID,
		&res.EventID, &res.SubmissionBlockID, &vtype, &status, &submitted, &due,
		&started, &ended, &finalYes, &finalNo, &finalAbstain, &outcome,
	)
	if err != nil {
		return models.Resolution{}, err
	}
	res.Kind = models.Kind(kind)
	res.VotingType = models.VotingType(vtype)
	res.Status = models.Status(status)
	res.SubmittedAt = fromMillis(submitted)
	res.DueDate = fromMillis(due)
	res.VotingStartedAt = fromNullMillis(started)
	res.VotingEndedAt = fromNullMillis(ended)
	if finalYes.Valid {
		res.FinalTally = &models.Tally{
			Kind:    res.Kind,
			Yes:     int(finalYes.Int64),
			No:      int(finalNo.Int64),
			Abstain: int(finalAbstain.Int64),
			Total:   int(finalYes.Int64 + finalNo.Int64 + finalAbstain.Int64),
		}
	}
	res.Outcome = models.Outcome(outcome.String)
	return res, nil
}

func getResolution(ctx context.Context, q queryer, id string) (models.Resolution, error) {
	row := q.QueryRowContext(ctx, `SELECT `+resolutionColumns+` FROM resolution WHERE id = ?`, id)
	res, err := scanResolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resolution{}, fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Resolution{}, fmt.Errorf("query resolution: %w", err)
	}
	return res, nil
}

// CreateResolution inserts one resolution with the status it carries.
func (s *Store) CreateResolution(ctx context.Context, res models.Resolution) error {
	if strings.TrimSpace(res.ID) == "" {
		return fmt.Errorf("resolution id is required")
	}
	var finalYes, finalNo, finalAbstain sql.NullInt64
	if res.FinalTally != nil {
		finalYes = sql.NullInt64{Int64: int64(res.FinalTally.Yes), Valid: true}
		finalNo = sql.NullInt64{Int64: int64(res.FinalTally.No), Valid: true}
		finalAbstain = sql.NullInt64{Int64: int64(res.FinalTally.Abstain), Valid: true}
	}
	var outcome sql.NullString
	if res.Outcome != "" {
		outcome = sql.NullString{String: string(res.Outcome), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO resolution (`+resolutionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, string(res.Kind), res.Title, res.Description, res.AuthorID, res.CountryID, res.CommitteeID,
		res.EventID, res.SubmissionBlockID, string(res.VotingType), string(res.Status),
		toMillis(res.SubmittedAt), toMillis(res.DueDate),
		toNullMillis(res.VotingStartedAt), toNullMillis(res.VotingEndedAt),
		finalYes, finalNo, finalAbstain, outcome,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// GetResolution loads one resolution.
func (s *Store) GetResolution(ctx context.Context, id string) (models.Resolution, error) {
	return getResolution(ctx, s.sqlDB, id)
}

// ListResolutions returns matching resolutions in submission order.
func (s *Store) ListResolutions(ctx context.Context, filter models.ResolutionFilter) ([]models.Resolution, error) {
	var (
		where []string
		args  []any
	)
	if v := strings.TrimSpace(filter.EventID); v != "" {
		where = append(where, "event_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.SubmissionBlockID); v != "" {
		where = append(where, "submission_block_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.CommitteeID); v != "" {
		where = append(where, "committee_id = ?")
		args = append(args, v)
	}
	query := `SELECT ` + resolutionColumns + ` FROM resolution`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at ASC, rowid ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []models.Resolution{}
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		resolutions = append(resolutions, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return resolutions, nil
}

// ApplyTransition checks the prior status and writes the new one in one
// transaction. Leaving active stores the frozen tally and outcome.
func (s *Store) ApplyTransition(ctx context.Context, id string, t voting.Transition) (models.Resolution, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return models.Resolution{}, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var kind, status string
	err = tx.QueryRowContext(ctx, `SELECT kind, status FROM resolution WHERE id = ?`, id).Scan(&kind, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resolution{}, fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Resolution{}, fmt.Errorf("query resolution status: %w", err)
	}

	current := models.Status(status)
	if !t.Allows(current) {
		return models.Resolution{}, fmt.Errorf("%w: %s -> %s", voting.ErrInvalidTransition, current, t.To)
	}

	at := toMillis(t.At)
	if current == models.StatusActive {
		votes, err := listVotes(ctx, tx, id)
		if err != nil {
			return models.Resolution{}, err
		}
		tally := voting.Count(models.Kind(kind), votes)
		var outcome sql.NullString
		if t.Settle != nil {
			o, err := t.Settle(tally)
			if err != nil {
				return models.Resolution{}, err
			}
			outcome = sql.NullString{String: string(o), Valid: o != ""}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE resolution
			SET status = ?, voting_ended_at = ?, final_yes = ?, final_no = ?, final_abstain = ?, outcome = ?
			WHERE id = ?
		`, string(t.To), at, tally.Yes, tally.No, tally.Abstain, outcome, id)
		if err != nil {
			return models.Resolution{}, fmt.Errorf("close voting: %w", err)
		}
	} else if t.To == models.StatusActive {
		_, err = tx.ExecContext(ctx, `
			UPDATE resolution SET status = ?, voting_started_at = ? WHERE id = ?
		`, string(t.To), at, id)
		if err != nil {
			return models.Resolution{}, fmt.Errorf("open voting: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE resolution SET status = ? WHERE id = ?`, string(t.To), id)
		if err != nil {
			return models.Resolution{}, fmt.Errorf("update status: %w", err)
		}
	}

	res, err := getResolution(ctx, tx, id)
	if err != nil {
		return models.Resolution{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Resolution{}, fmt.Errorf("commit transition: %w", err)
	}
	return res, nil
}

// DeleteResolution removes a resolution that no vote references.
func (s *Store) DeleteResolution(ctx context.Context, id string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var exists, hasVotes bool
	err = tx.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM resolution WHERE id = ?),
			EXISTS(SELECT 1 FROM vote WHERE resolution_id = ?)
	`, id, id).Scan(&exists, &hasVotes)
	if err != nil {
		return fmt.Errorf("check resolution: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if hasVotes {
		return fmt.Errorf("%w: resolution %s", voting.ErrConflict, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resolution WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// InsertVote records a vote if the resolution is active and the voter has
// not voted on it yet. The UNIQUE constraint is the final arbiter.
func (s *Store) InsertVote(ctx context.Context, vote models.Vote) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM resolution WHERE id = ?`, vote.ResolutionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: resolution %s", voting.ErrNotFound, vote.ResolutionID)
	}
	if err != nil {
		return fmt.Errorf("query resolution status: %w", err)
	}
	if models.Status(status) != models.StatusActive {
		return fmt.Errorf("%w: status is %s", voting.ErrResolutionNotActive, status)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, resolution_id, voter_id, choice, note, cast_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, vote.ID, vote.ResolutionID, vote.VoterID, string(vote.Choice), vote.Note, toMillis(vote.CastAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: voter %s", voting.ErrAlreadyVoted, vote.VoterID)
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// HasVoted reports whether a vote exists for the pair.
func (s *Store) HasVoted(ctx context.Context, resolutionID, voterID string) (bool, error) {
	var exists bool
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM vote WHERE resolution_id = ? AND voter_id = ?)
	`, resolutionID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return exists, nil
}

// ListVotes returns the votes on a resolution in cast order.
func (s *Store) ListVotes(ctx context.Context, resolutionID string) ([]models.Vote, error) {
	return listVotes(ctx, s.sqlDB, resolutionID)
}

func listVotes(ctx context.Context, q queryer, resolutionID string) ([]models.Vote, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, resolution_id, voter_id, choice, note, cast_at
		FROM vote
		WHERE resolution_id = ?
		ORDER BY cast_at ASC, rowid ASC
	`, resolutionID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var (
			v      models.Vote
			choice string
			castAt int64
		)
		if err := rows.Scan(&v.ID, &v.ResolutionID, &v.VoterID, &choice, &v.Note, &castAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.Choice = models.Choice(choice)
		v.CastAt = fromMillis(castAt)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}

// CreateDelegate inserts one delegate.
func (s *Store) CreateDelegate(ctx context.Context, d models.Delegate) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO delegate (id, name, country_id, committee_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.CountryID, d.CommitteeID, toMillis(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert delegate: %w", err)
	}
	return nil
}

// GetDelegate loads one delegate.
func (s *Store) GetDelegate(ctx context.Context, id string) (models.Delegate, error) {
	var (
		d         models.Delegate
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, name, country_id, committee_id, created_at FROM delegate WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &d.CountryID, &d.CommitteeID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Delegate{}, fmt.Errorf("%w: delegate %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Delegate{}, fmt.Errorf("query delegate: %w", err)
	}
	d.CreatedAt = fromMillis(createdAt)
	return d, nil
}

// ListDelegates returns a committee's delegates in registration order.
func (s *Store) ListDelegates(ctx context.Context, committeeID string) ([]models.Delegate, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, country_id, committee_id, created_at
		FROM delegate
		WHERE committee_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, committeeID)
	if err != nil {
		return nil, fmt.Errorf("list delegates: %w", err)
	}
	defer rows.Close()

	delegates := []models.Delegate{}
	for rows.Next() {
		var (
			d         models.Delegate
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.CountryID, &d.CommitteeID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delegate: %w", err)
		}
		d.CreatedAt = fromMillis(createdAt)
		delegates = append(delegates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delegates: %w", err)
	}
	return delegates, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

var _ voting.Store = (*Store)(nil)
