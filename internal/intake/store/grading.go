package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"startup-intake/internal/models"
)

// gradingTable maps one grading section onto its 1:1 child table. Each
// selection occupies a <prefix>_value, <prefix>_label, <prefix>_doc_url triple.
type gradingTable struct {
	name       string
	prefixes   []string
	selections func(app *models.Application) []*models.GradingSelection

	upsertSQL string
	selectSQL string
}

var gradingTables = []*gradingTable{
	newGradingTable("innovation_grading",
		[]string{"intellectual_property", "achievements_awards", "stage_of_product", "employment_research"},
		func(app *models.Application) []*models.GradingSelection {
			g := &app.InnovationGrading
			return []*models.GradingSelection{
				&g.IntellectualProperty, &g.AchievementsAwards, &g.StageOfProductService, &g.EmploymentOfResearchPersonnel,
			}
		}),
	newGradingTable("wealth_grading",
		[]string{"funding_obtained", "revenue_generation", "profitability"},
		func(app *models.Application) []*models.GradingSelection {
			g := &app.WealthGrading
			return []*models.GradingSelection{&g.FundingObtained, &g.RevenueGeneration, &g.Profitability}
		}),
	newGradingTable("employment_creation",
		[]string{"direct_employment", "pwd_female_employment", "employee_non_metro"},
		func(app *models.Application) []*models.GradingSelection {
			g := &app.EmploymentCreation
			return []*models.GradingSelection{&g.DirectEmployment, &g.PwdFemaleEmploymentCount, &g.EmployeeNonMetroCities}
		}),
}

func newGradingTable(name string, prefixes []string, selections func(*models.Application) []*models.GradingSelection) *gradingTable {
	var cols, updates []string
	for _, p := range prefixes {
		for _, suffix := range []string{"_value", "_label", "_doc_url"} {
			cols = append(cols, p+suffix)
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", p+suffix, p+suffix))
		}
	}

	placeholders := make([]string, len(cols)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return &gradingTable{
		name:       name,
		prefixes:   prefixes,
		selections: selections,
		upsertSQL: fmt.Sprintf(
			"INSERT INTO %s (startup_application_id, %s) VALUES (%s) ON CONFLICT (startup_application_id) DO UPDATE SET %s",
			name, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "),
		),
		selectSQL: fmt.Sprintf(
			"SELECT %s FROM %s WHERE startup_application_id = $1",
			strings.Join(cols, ", "), name,
		),
	}
}

func (t *gradingTable) write(ctx context.Context, tx *sql.Tx, id int64, app *models.Application) error {
	args := []interface{}{id}
	for _, s := range t.selections(app) {
		args = append(args, nullable(s.Value), nullable(s.Label), nullableRef(s.Document))
	}
	if _, err := tx.ExecContext(ctx, t.upsertSQL, args...); err != nil {
		return fmt.Errorf("write %s: %w", t.name, err)
	}
	return nil
}

// read fills the section from its row. A missing row leaves it empty.
func (t *gradingTable) read(ctx context.Context, tx *sql.Tx, id int64, app *models.Application) error {
	cells := make([]sql.NullString, len(t.prefixes)*3)
	dest := make([]interface{}, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}

	err := tx.QueryRowContext(ctx, t.selectSQL, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select %s: %w", t.name, err)
	}

	for i, s := range t.selections(app) {
		s.Value = cells[i*3].String
		s.Label = cells[i*3+1].String
		s.Document = refFromNull(cells[i*3+2])
	}
	return nil
}
