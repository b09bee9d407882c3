package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleChangesChannel is the NOTIFY channel fed by the trade_rules trigger.
const RuleChangesChannel = "trade_rules_changes"

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS trade_rules (
		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id      UUID NOT NULL,
		text         TEXT NOT NULL,
		type         TEXT NOT NULL DEFAULT 'general' CHECK (type IN ('buy', 'sell', 'general')),
		required     BOOLEAN NOT NULL DEFAULT TRUE,
		order_number INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_rules_user ON trade_rules (user_id, order_number)`,

	`CREATE TABLE IF NOT EXISTS journal_entries (
		id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id           UUID NOT NULL,
		pair              TEXT NOT NULL DEFAULT '',
		type              TEXT NOT NULL CHECK (type IN ('buy', 'sell')),
		entry_price       NUMERIC(20, 8),
		stop_loss         NUMERIC(20, 8),
		take_profit       NUMERIC(20, 8),
		exit_price        NUMERIC(20, 8),
		pnl               NUMERIC(20, 2),
		status            TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
		validation_result TEXT CHECK (validation_result IN ('approved', 'rejected', 'warning')),
		notes             TEXT NOT NULL DEFAULT '',
		screenshot_url    TEXT,
		strategy          TEXT,
		time_frame        TEXT,
		confidence_level  INTEGER,
		date              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_date ON journal_entries (user_id, date DESC)`,

	`CREATE TABLE IF NOT EXISTS todos (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    UUID NOT NULL,
		title      TEXT NOT NULL,
		completed  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_user ON todos (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		tier       TEXT NOT NULL DEFAULT 'foundation' CHECK (tier IN ('foundation', 'professional', 'elite')),
		status     TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS courses (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS course_enrollments (
		user_id      UUID NOT NULL,
		course_id    UUID NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		progress     INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		enrolled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		PRIMARY KEY (user_id, course_id)
	)`,

	`CREATE OR REPLACE FUNCTION notify_trade_rules_change() RETURNS trigger AS $$
	DECLARE
		rec RECORD;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := OLD;
		ELSE
			rec := NEW;
		END IF;
		PERFORM pg_notify('` + RuleChangesChannel + `', json_build_object(
			'op', TG_OP,
			'id', rec.id,
			'user_id', rec.user_id
		)::text);
		RETURN rec;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trade_rules_notify ON trade_rules`,
	`CREATE TRIGGER trade_rules_notify
		AFTER INSERT OR UPDATE OR DELETE ON trade_rules
		FOR EACH ROW EXECUTE FUNCTION notify_trade_rules_change()`,
}

// analyticsFunctions are created only when absent so a deployment's own
// reporting functions are never replaced.
var analyticsFunctions = map[string]string{
	"get_business_metrics": `CREATE FUNCTION get_business_metrics()
		RETURNS TABLE (total_revenue NUMERIC, mrr NUMERIC, churn_rate NUMERIC,
		               foundation_count BIGINT, professional_count BIGINT, elite_count BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT 0::numeric, 0::numeric, 0::numeric, 0::bigint, 0::bigint, 0::bigint
		$$`,
	"get_student_penalties": `CREATE FUNCTION get_student_penalties()
		RETURNS TABLE (student_id UUID, name TEXT, email TEXT,
		               rejected_count BIGINT, warning_count BIGINT, total_penalties BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT j.user_id, COALESCE(p.name, ''), COALESCE(p.email, ''),
			       COUNT(*) FILTER (WHERE j.validation_result = 'rejected'),
			       COUNT(*) FILTER (WHERE j.validation_result = 'warning'),
			       COUNT(*) FILTER (WHERE j.validation_result IN ('rejected', 'warning'))
			FROM journal_entries j
			LEFT JOIN profiles p ON p.id = j.user_id
			GROUP BY j.user_id, p.name, p.email
			HAVING COUNT(*) FILTER (WHERE j.validation_result IN ('rejected', 'warning')) > 0
			ORDER BY 6 DESC
		$$`,
	"get_penalty_trends": `CREATE FUNCTION get_penalty_trends()
		RETURNS TABLE (date_period DATE, rejected_count BIGINT, warning_count BIGINT, total_penalties BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT date::date,
			       COUNT(*) FILTER (WHERE validation_result = 'rejected'),
			       COUNT(*) FILTER (WHERE validation_result = 'warning'),
			       COUNT(*) FILTER (WHERE validation_result IN ('rejected', 'warning'))
			FROM journal_entries
			WHERE date >= NOW() - INTERVAL '30 days'
			GROUP BY 1
			ORDER BY 1
		$$`,
	"get_revenue_growth_data": `CREATE FUNCTION get_revenue_growth_data()
		RETURNS TABLE (period DATE, revenue NUMERIC, members BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT date_trunc('month', NOW())::date, 0::numeric, 0::bigint
		$$`,
	"get_course_completion": `CREATE FUNCTION get_course_completion()
		RETURNS TABLE (course_id UUID, name TEXT, enrolled BIGINT, completed BIGINT, completion NUMERIC)
		LANGUAGE sql STABLE AS $$
			SELECT c.id, c.title,
			       COUNT(e.user_id),
			       COUNT(e.completed_at),
			       COALESCE(ROUND(AVG(e.progress), 1), 0)
			FROM courses c
			LEFT JOIN course_enrollments e ON e.course_id = c.id
			GROUP BY c.id, c.title
			ORDER BY c.title
		$$`,
	"get_course_enrollment_counts": `CREATE FUNCTION get_course_enrollment_counts()
		RETURNS TABLE (course_id UUID, name TEXT, enrollments BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT c.id, c.title, COUNT(e.user_id)
			FROM courses c
			LEFT JOIN course_enrollments e ON e.course_id = c.id
			GROUP BY c.id, c.title
			ORDER BY 3 DESC, c.title
		$$`,
	// A rule counts as violated by a rejected or warned trade of its owner
	// when the rule's type is general or matches the trade direction.
	"get_rule_violations": `CREATE FUNCTION get_rule_violations()
		RETURNS TABLE (rule TEXT, rule_type TEXT, violations BIGINT, students BIGINT)
		LANGUAGE sql STABLE AS $$
			SELECT MIN(r.text), r.type, COUNT(j.id), COUNT(DISTINCT r.user_id)
			FROM trade_rules r
			JOIN journal_entries j
			  ON j.user_id = r.user_id
			 AND j.validation_result IN ('rejected', 'warning')
			 AND (r.type = 'general' OR r.type = j.type)
			WHERE r.required
			GROUP BY lower(btrim(r.text)), r.type
			ORDER BY 3 DESC, 1
		$$`,
}

// schemaLockKey serialises concurrent bootstraps (parallel test packages,
// several replicas starting together).
const schemaLockKey = 7_426_001

// EnsureSchema creates the tables, the rule change trigger and any missing
// reporting functions. It is safe to run on every start.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ensure schema: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("ensure schema: lock: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	for name, stmt := range analyticsFunctions {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`, name,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check function %s: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create function %s: %w", name, err)
		}
	}
	return tx.Commit(ctx)
}
