package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// ProfileRepo reads candidate profiles. Profile writes happen in the account
// service that owns the table; this repo only consumes the hint fields.
type ProfileRepo struct{ Pool PgxPool }

// NewProfileRepo constructs a ProfileRepo with the given pool.
func NewProfileRepo(p PgxPool) *ProfileRepo { return &ProfileRepo{Pool: p} }

// GetByUserID loads the user's profile; ErrNotFound when no row exists.
func (r *ProfileRepo) GetByUserID(ctx domain.Context, userID string) (domain.CandidateProfile, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.GetByUserID")
	defer span.End()
	q := `SELECT user_id, COALESCE(years_of_experience,0), COALESCE(primary_tech_stack,''), COALESCE(programming_languages,'{}'), COALESCE(technologies,'{}'), COALESCE(target_roles,'{}'), profile_complete FROM profiles WHERE user_id=$1`
	row := r.Pool.QueryRow(ctx, q, userID)
	var p domain.CandidateProfile
	if err := row.Scan(&p.UserID, &p.YearsOfExperience, &p.PrimaryTechStack, &p.ProgrammingLanguages, &p.Technologies, &p.TargetRoles, &p.ProfileComplete); err != nil {
		if err == pgx.ErrNoRows {
			return domain.CandidateProfile{}, fmt.Errorf("op=profile.get: %w", domain.ErrNotFound)
		}
		return domain.CandidateProfile{}, fmt.Errorf("op=profile.get: %w", err)
	}
	return p, nil
}
