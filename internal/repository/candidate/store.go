// Package candidate reads job postings and user profiles from PostgreSQL.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// DefaultLimit caps Find when the filter carries no limit.
const DefaultLimit = 100

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store is the PostgreSQL candidate store.
type Store struct {
	db querier
}

// New creates a candidate store over a pool.
func New(db querier) *Store {
	return &Store{db: db}
}

const postingColumns = `id, title, company, COALESCE(description, ''), COALESCE(location, ''),
	COALESCE(region, ''), remote, COALESCE(job_type, ''), COALESCE(experience_level, ''),
	salary_min, salary_max, COALESCE(categories, '{}'), COALESCE(skills, '{}'), status, created_at`

// Find returns active postings matching f, newest first.
func (s *Store) Find(ctx context.Context, f job.Filter) ([]job.Posting, error) {
	query, args := buildFindQuery(f)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w: %w", domain.ErrCandidateStoreUnavailable, err)
	}
	defer rows.Close()

	var out []job.Posting
	for rows.Next() {
		var p job.Posting
		var status string
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Company, &p.Description, &p.Location,
			&p.Region, &p.Remote, &p.JobType, &p.ExperienceLevel,
			&p.SalaryMin, &p.SalaryMax, &p.Categories, &p.Skills, &status, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan posting: %w: %w", domain.ErrCandidateStoreUnavailable, err)
		}
		p.Status = job.Status(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w: %w", domain.ErrCandidateStoreUnavailable, err)
	}
	return out, nil
}

const profileQuery = `SELECT p.user_id, COALESCE(p.desired_title, ''), COALESCE(p.bio, ''),
	COALESCE(p.location, ''), COALESCE(p.preferred_job_type, ''), COALESCE(p.experience_level, ''),
	p.desired_salary, COALESCE(p.skills, '{}'), COALESCE(p.interests, '{}'),
	COALESCE((SELECT array_agg(a.job_id ORDER BY a.job_id) FROM job_applications a WHERE a.user_id = p.user_id), '{}'),
	COALESCE((SELECT array_agg(s.job_id ORDER BY s.job_id) FROM saved_jobs s WHERE s.user_id = p.user_id), '{}')
FROM user_profiles p
WHERE p.user_id = $1`

// FindUserProfile returns the profile with its application and saved-job history.
// A missing profile is nil, nil.
func (s *Store) FindUserProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	var p profile.Profile
	err := s.db.QueryRow(ctx, profileQuery, userID).Scan(
		&p.UserID, &p.DesiredTitle, &p.Bio, &p.Location, &p.PreferredJobType,
		&p.ExperienceLevel, &p.DesiredSalary, &p.Skills, &p.Interests,
		&p.AppliedJobIDs, &p.SavedJobIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w: %w", userID, domain.ErrCandidateStoreUnavailable, err)
	}
	return &p, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// buildFindQuery renders the posting query for f with positional args.
func buildFindQuery(f job.Filter) (string, []any) {
	f = f.Normalize()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(postingColumns)
	sb.WriteString("\nFROM job_postings\nWHERE status = 'active'")

	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		sb.WriteString(" AND ")
		sb.WriteString(strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Region != "" {
		add("lower(region) = ?", f.Region)
	}
	if f.JobType != nil {
		add("lower(job_type) = ?", *f.JobType)
	}
	if f.ExperienceLevel != nil {
		add("lower(experience_level) = ?", *f.ExperienceLevel)
	}
	if f.SalaryMin != nil {
		add("salary_min >= ?", *f.SalaryMin)
	}
	if f.SalaryMax != nil {
		add("salary_max <= ?", *f.SalaryMax)
	}
	if f.Remote != nil {
		add("remote = ?", *f.Remote)
	}
	if f.LocationContains != "" {
		add("location ILIKE ?", "%"+escapeLike(f.LocationContains)+"%")
	}
	if len(f.ExcludeIDs) > 0 {
		add("id <> ALL(?)", f.ExcludeIDs)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	args = append(args, limit)
	sb.WriteString("\nORDER BY created_at DESC, id\nLIMIT $" + strconv.Itoa(len(args)))

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
