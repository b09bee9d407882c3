package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/maichez-backend/internal/models"
)

// AnalyticsRepo reads the admin reporting functions. The aggregation lives
// in the database.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func (r *AnalyticsRepo) BusinessMetrics(ctx context.Context) (*models.BusinessMetrics, error) {
	var m models.BusinessMetrics
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(total_revenue, 0), COALESCE(mrr, 0), COALESCE(churn_rate, 0),
		        COALESCE(foundation_count, 0), COALESCE(professional_count, 0), COALESCE(elite_count, 0)
		 FROM get_business_metrics()`,
	).Scan(&m.TotalRevenue, &m.MRR, &m.ChurnRate, &m.FoundationCount, &m.ProfessionalCount, &m.EliteCount)
	if err != nil {
		return nil, fmt.Errorf("business metrics: %w", notFound(err))
	}
	return &m, nil
}

func (r *AnalyticsRepo) StudentPenalties(ctx context.Context) ([]models.StudentPenalty, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id::text, COALESCE(name, ''), COALESCE(email, ''),
		        rejected_count, warning_count, total_penalties
		 FROM get_student_penalties()`,
	)
	if err != nil {
		return nil, fmt.Errorf("student penalties: %w", err)
	}
	defer rows.Close()

	out := []models.StudentPenalty{}
	for rows.Next() {
		var p models.StudentPenalty
		if err := rows.Scan(&p.StudentID, &p.Name, &p.Email, &p.RejectedCount, &p.WarningCount, &p.TotalPenalties); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) PenaltyTrends(ctx context.Context) ([]models.PenaltyTrend, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_period::timestamptz, rejected_count, warning_count, total_penalties
		 FROM get_penalty_trends()`,
	)
	if err != nil {
		return nil, fmt.Errorf("penalty trends: %w", err)
	}
	defer rows.Close()

	out := []models.PenaltyTrend{}
	for rows.Next() {
		var p models.PenaltyTrend
		if err := rows.Scan(&p.DatePeriod, &p.RejectedCount, &p.WarningCount, &p.TotalPenalties); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) RevenueGrowth(ctx context.Context) ([]models.RevenuePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT period::timestamptz, COALESCE(revenue, 0), COALESCE(members, 0)
		 FROM get_revenue_growth_data()`,
	)
	if err != nil {
		return nil, fmt.Errorf("revenue growth: %w", err)
	}
	defer rows.Close()

	out := []models.RevenuePoint{}
	for rows.Next() {
		var p models.RevenuePoint
		if err := rows.Scan(&p.Period, &p.Revenue, &p.Members); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) CourseCompletion(ctx context.Context) ([]models.CourseCompletion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id::text, COALESCE(name, ''), COALESCE(enrolled, 0), COALESCE(completed, 0),
		        COALESCE(completion, 0)
		 FROM get_course_completion()`,
	)
	if err != nil {
		return nil, fmt.Errorf("course completion: %w", err)
	}
	defer rows.Close()

	out := []models.CourseCompletion{}
	for rows.Next() {
		var c models.CourseCompletion
		if err := rows.Scan(&c.CourseID, &c.Name, &c.Enrolled, &c.Completed, &c.Completion); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) CourseEnrollments(ctx context.Context) ([]models.CourseEnrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id::text, COALESCE(name, ''), COALESCE(enrollments, 0)
		 FROM get_course_enrollment_counts()`,
	)
	if err != nil {
		return nil, fmt.Errorf("course enrollments: %w", err)
	}
	defer rows.Close()

	out := []models.CourseEnrollment{}
	for rows.Next() {
		var c models.CourseEnrollment
		if err := rows.Scan(&c.CourseID, &c.Name, &c.Enrollments); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) RuleViolations(ctx context.Context) ([]models.RuleViolation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(rule, ''), COALESCE(rule_type, ''), violations, students
		 FROM get_rule_violations()`,
	)
	if err != nil {
		return nil, fmt.Errorf("rule violations: %w", err)
	}
	defer rows.Close()

	out := []models.RuleViolation{}
	for rows.Next() {
		var v models.RuleViolation
		if err := rows.Scan(&v.Rule, &v.Type, &v.Violations, &v.Students); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
