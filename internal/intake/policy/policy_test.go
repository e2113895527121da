package policy

import (
	"testing"

	"startup-intake/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsRequired(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"startupVideoLink", true},
		{"moaFile", true},
		{"reconstructionFile", true},
		{"incomeTaxReturns.fy2024_25", false},
		{"annualAccounts[0].revenue", true},
		{"annualAccounts[2].profitLoss", true},
		{"annualAccounts[1].balanceSheet", false},
		{"innovationGrading.intellectualProperty", true},
		{"employmentCreation.employeeNonMetroCities", true},
		{"unknown.field", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRequired(tt.path))
		})
	}
}

func TestIsDocumentRequired(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    string
		expected bool
	}{
		{"not filed needs nothing", "innovationGrading.intellectualProperty", "NOT_FILED", false},
		{"filed needs proof", "innovationGrading.intellectualProperty", "FILED", true},
		{"granted needs proof", "innovationGrading.intellectualProperty", "GRANTED", true},
		{"no award", "innovationGrading.achievementsAwards", "NO_AWARD", false},
		{"loss", "wealthGrading.profitability", "LOSS", false},
		{"break even", "wealthGrading.profitability", "NO_PROFIT_NO_LOSS", false},
		{"profit", "wealthGrading.profitability", "PROFIT_LATEST_YEAR", true},
		{"shared percent band", "employmentCreation.pwdFemaleEmploymentCount", "PERCENT_25_50", true},
		{"empty value", "wealthGrading.fundingObtained", "", false},
		{"unknown option fails open", "wealthGrading.fundingObtained", "FUNDING_LEGACY", false},
		{"unknown field fails open", "wealthGrading.unknown", "FILED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDocumentRequired(tt.path, tt.value))
		})
	}
}

func TestGradingFields_EveryFieldHasNoDocumentOption(t *testing.T) {
	fields := GradingFields()
	assert.Len(t, fields, 10)

	for _, f := range fields {
		t.Run(f.Path, func(t *testing.T) {
			assert.True(t, f.Required)
			assert.NotEmpty(t, f.Options)
			assert.False(t, f.Options[0].DocRequired, "first option should not need a document")
			for _, opt := range f.Options {
				assert.Equal(t, opt.DocRequired, IsDocumentRequired(f.Path, opt.Value))
			}
		})
	}
}

func TestAnnotate_IgnoresClientFlag(t *testing.T) {
	app := &models.Application{}
	app.InnovationGrading.IntellectualProperty = models.GradingSelection{Value: "FILED", DocRequired: false}
	app.InnovationGrading.AchievementsAwards = models.GradingSelection{Value: "NO_AWARD", DocRequired: true}
	app.WealthGrading.FundingObtained = models.GradingSelection{Value: "LEGACY_VALUE", DocRequired: true}

	unknown := Annotate(app)

	assert.True(t, app.InnovationGrading.IntellectualProperty.DocRequired)
	assert.False(t, app.InnovationGrading.AchievementsAwards.DocRequired)
	assert.False(t, app.WealthGrading.FundingObtained.DocRequired)
	assert.Equal(t, []string{"wealthGrading.fundingObtained"}, unknown)
}

func TestExport(t *testing.T) {
	table := Export()

	assert.Len(t, table.GradingFields, 10)
	assert.NotEmpty(t, table.Fields)

	rule, ok := Rule("annualAccounts[1].revenue")
	assert.True(t, ok)
	assert.Equal(t, KindNumber, rule.Kind)
}
