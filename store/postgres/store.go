// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	dbschema "github.com/danielhkuo/munvote/db"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/voting"
)

const uniqueViolation = "23505"

// Store persists resolutions, votes and delegates in PostgreSQL.
// Row locks (FOR UPDATE / FOR SHARE) order status changes against votes.
type Store struct {
	sqlDB *sql.DB
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open connects to dsn, verifies the connection and applies the schema.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := dbschema.CreateSchema(sqlDB, dbschema.TypePostgres); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{sqlDB: sqlDB}, nil
}

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
		started, ended      sql.NullTime
		finalYes, finalNo   sql.NullInt64
		finalAbstain        sql.NullInt64
		outcome             sql.NullString
	)
	err := row.Scan(
		&res.ID, &kind, &res.Title, &res.Description, &res.AuthorID, &res.CountryID, &res.CommitteeID,
		&res.EventID, &res.SubmissionBlockID, &vtype, &status, &res.SubmittedAt, &res.DueDate,
		&started, &ended, &finalYes, &finalNo, &finalAbstain, &outcome,
	)
	if err != nil {
		return models.Resolution{}, err
	}
	res.Kind = models.Kind(kind)
	res.VotingType = models.VotingType(vtype)
	res.Status = models.Status(status)
	res.SubmittedAt = res.SubmittedAt.UTC()
	res.DueDate = res.DueDate.UTC()
	if started.Valid {
		t := started.Time.UTC()
		res.VotingStartedAt = &t
	}
	if ended.Valid {
		t := ended.Time.UTC()
		res.VotingEndedAt = &t
	}
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
	row := q.QueryRowContext(ctx, `SELECT `+resolutionColumns+` FROM resolution WHERE id = $1`, id)
	res, err := scanResolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resolution{}, fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Resolution{}, fmt.Errorf("query resolution: %w", err)
	}
	return res, nil
}

func (s *Store) CreateResolution(ctx context.Context, res models.Resolution) error {
	if strings.TrimSpace(res.ID) == "" {
		return errors.New("resolution id is required")
	}
	var finalYes, finalNo, finalAbstain sql.NullInt64
	if res.FinalTally != nil {
		finalYes = sql.NullInt64{Int64: int64(res.FinalTally.Yes), Valid: true}
		finalNo = sql.NullInt64{Int64: int64(res.FinalTally.No), Valid: true}
		finalAbstain = sql.NullInt64{Int64: int64(res.FinalTally.Abstain), Valid: true}
	}
	var started, ended sql.NullTime
	if res.VotingStartedAt != nil {
		started = sql.NullTime{Time: *res.VotingStartedAt, Valid: true}
	}
	if res.VotingEndedAt != nil {
		ended = sql.NullTime{Time: *res.VotingEndedAt, Valid: true}
	}
	var outcome sql.NullString
	if res.Outcome != "" {
		outcome = sql.NullString{String: string(res.Outcome), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO resolution (`+resolutionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		res.ID, string(res.Kind), res.Title, res.Description, res.AuthorID, res.CountryID, res.CommitteeID,
		res.EventID, res.SubmissionBlockID, string(res.VotingType), string(res.Status),
		res.SubmittedAt, res.DueDate, started, ended,
		finalYes, finalNo, finalAbstain, outcome,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

func (s *Store) GetResolution(ctx context.Context, id string) (models.Resolution, error) {
	return getResolution(ctx, s.sqlDB, id)
}

func (s *Store) ListResolutions(ctx context.Context, filter models.ResolutionFilter) ([]models.Resolution, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value = strings.TrimSpace(value); value == "" {
			return
		}
		args = append(args, value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	add("event_id", filter.EventID)
	add("submission_block_id", filter.SubmissionBlockID)
	add("committee_id", filter.CommitteeID)

	query := `SELECT ` + resolutionColumns + ` FROM resolution`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at ASC, id ASC`

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

func (s *Store) ApplyTransition(ctx context.Context, id string, t voting.Transition) (models.Resolution, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return models.Resolution{}, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var kind, status string
	err = tx.QueryRowContext(ctx, `SELECT kind, status FROM resolution WHERE id = $1 FOR UPDATE`, id).Scan(&kind, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resolution{}, fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Resolution{}, fmt.Errorf("lock resolution: %w", err)
	}

	current := models.Status(status)
	if !t.Allows(current) {
		return models.Resolution{}, fmt.Errorf("%w: %s -> %s", voting.ErrInvalidTransition, current, t.To)
	}

	switch {
	case current == models.StatusActive:
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
			SET status = $1, voting_ended_at = $2, final_yes = $3, final_no = $4, final_abstain = $5, outcome = $6
			WHERE id = $7
		`, string(t.To), t.At, tally.Yes, tally.No, tally.Abstain, outcome, id)
		if err != nil {
			return models.Resolution{}, fmt.Errorf("close voting: %w", err)
		}
	case t.To == models.StatusActive:
		_, err = tx.ExecContext(ctx, `
			UPDATE resolution SET status = $1, voting_started_at = $2 WHERE id = $3
		`, string(t.To), t.At, id)
		if err != nil {
			return models.Resolution{}, fmt.Errorf("open voting: %w", err)
		}
	default:
		_, err = tx.ExecContext(ctx, `UPDATE resolution SET status = $1 WHERE id = $2`, string(t.To), id)
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

func (s *Store) DeleteResolution(ctx context.Context, id string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM resolution WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: resolution %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lock resolution: %w", err)
	}

	var hasVotes bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM vote WHERE resolution_id = $1)`, id).Scan(&hasVotes)
	if err != nil {
		return fmt.Errorf("check votes: %w", err)
	}
	if hasVotes {
		return fmt.Errorf("%w: resolution %s", voting.ErrConflict, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resolution WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// InsertVote holds a share lock on the resolution row so a concurrent
// transition either sees this vote or makes it fail as not active.
func (s *Store) InsertVote(ctx context.Context, vote models.Vote) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM resolution WHERE id = $1 FOR SHARE`, vote.ResolutionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: resolution %s", voting.ErrNotFound, vote.ResolutionID)
	}
	if err != nil {
		return fmt.Errorf("lock resolution: %w", err)
	}
	if models.Status(status) != models.StatusActive {
		return fmt.Errorf("%w: status is %s", voting.ErrResolutionNotActive, status)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, resolution_id, voter_id, choice, note, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, vote.ID, vote.ResolutionID, vote.VoterID, string(vote.Choice), vote.Note, vote.CastAt)
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

func (s *Store) HasVoted(ctx context.Context, resolutionID, voterID string) (bool, error) {
	var exists bool
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM vote WHERE resolution_id = $1 AND voter_id = $2)
	`, resolutionID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return exists, nil
}

func (s *Store) ListVotes(ctx context.Context, resolutionID string) ([]models.Vote, error) {
	return listVotes(ctx, s.sqlDB, resolutionID)
}

func listVotes(ctx context.Context, q queryer, resolutionID string) ([]models.Vote, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, resolution_id, voter_id, choice, note, cast_at
		FROM vote
		WHERE resolution_id = $1
		ORDER BY cast_at ASC, seq ASC
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
		)
		if err := rows.Scan(&v.ID, &v.ResolutionID, &v.VoterID, &choice, &v.Note, &v.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.Choice = models.Choice(choice)
		v.CastAt = v.CastAt.UTC()
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}

func (s *Store) CreateDelegate(ctx context.Context, d models.Delegate) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO delegate (id, name, country_id, committee_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.Name, d.CountryID, d.CommitteeID, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert delegate: %w", err)
	}
	return nil
}

func (s *Store) GetDelegate(ctx context.Context, id string) (models.Delegate, error) {
	var d models.Delegate
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, name, country_id, committee_id, created_at FROM delegate WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.CountryID, &d.CommitteeID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Delegate{}, fmt.Errorf("%w: delegate %s", voting.ErrNotFound, id)
	}
	if err != nil {
		return models.Delegate{}, fmt.Errorf("query delegate: %w", err)
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

func (s *Store) ListDelegates(ctx context.Context, committeeID string) ([]models.Delegate, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, country_id, committee_id, created_at
		FROM delegate
		WHERE committee_id = $1
		ORDER BY created_at ASC, id ASC
	`, committeeID)
	if err != nil {
		return nil, fmt.Errorf("list delegates: %w", err)
	}
	defer rows.Close()

	delegates := []models.Delegate{}
	for rows.Next() {
		var d models.Delegate
		if err := rows.Scan(&d.ID, &d.Name, &d.CountryID, &d.CommitteeID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delegate: %w", err)
		}
		d.CreatedAt = d.CreatedAt.UTC()
		delegates = append(delegates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delegates: %w", err)
	}
	return delegates, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var _ voting.Store = (*Store)(nil)
