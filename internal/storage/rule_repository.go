package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
)

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// LoadRules reads the active margin rule set in bulk. The result feeds
// the rule cache tier; the engine never queries rules per request.
func (r *RuleRepository) LoadRules(ctx context.Context) ([]pricing.Rule, error) {
	query := `
		SELECT id, name, rule_type, value, priority,
		       country, city, star_min, star_max, meal_type,
		       min_booking_value, max_booking_value
		FROM margin_rules
		WHERE active = TRUE
		ORDER BY priority DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query margin rules: %w", err)
	}
	defer rows.Close()

	var rules []pricing.Rule
	for rows.Next() {
		var (
			rule               pricing.Rule
			ruleType           string
			value              string
			country, city      sql.NullString
			starMin, starMax   sql.NullInt64
			mealType           sql.NullString
			minValue, maxValue sql.NullString
		)
		err := rows.Scan(
			&rule.ID, &rule.Name, &ruleType, &value, &rule.Priority,
			&country, &city, &starMin, &starMax, &mealType,
			&minValue, &maxValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan margin rule: %w", err)
		}
		rule.Type = pricing.RuleType(ruleType)
		rule.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("rule %d has invalid value %q: %w", rule.ID, value, err)
		}
		rule.Country = country.String
		rule.City = city.String
		rule.MealType = mealType.String
		if starMin.Valid {
			v := int(starMin.Int64)
			rule.StarMin = &v
		}
		if starMax.Valid {
			v := int(starMax.Int64)
			rule.StarMax = &v
		}
		if minValue.Valid {
			d, err := decimal.NewFromString(minValue.String)
			if err != nil {
				return nil, fmt.Errorf("rule %d has invalid min value: %w", rule.ID, err)
			}
			rule.MinValue = &d
		}
		if maxValue.Valid {
			d, err := decimal.NewFromString(maxValue.String)
			if err != nil {
				return nil, fmt.Errorf("rule %d has invalid max value: %w", rule.ID, err)
			}
			rule.MaxValue = &d
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate margin rules: %w", err)
	}
	return rules, nil
}

// IncrementUsage bumps applied counters for the given rule ids in a
// single bulk update. Callers treat this as best-effort: a failure here
// must never fail a pricing response.
func (r *RuleRepository) IncrementUsage(ctx context.Context, counts map[int64]int) error {
	if len(counts) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(counts))
	increments := make([]int64, 0, len(counts))
	for id, n := range counts {
		ids = append(ids, id)
		increments = append(increments, int64(n))
	}
	query := `
		UPDATE margin_rules AS m
		SET applied_count = m.applied_count + u.n
		FROM unnest($1::bigint[], $2::bigint[]) AS u(id, n)
		WHERE m.id = u.id
	`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), pq.Array(increments)); err != nil {
		return fmt.Errorf("bulk update rule usage: %w", err)
	}
	return nil
}
