package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnnualAccounts(t *testing.T) {
	tests := []struct {
		name     string
		rows     []AnnualAccount
		validate func(t *testing.T, out []AnnualAccount)
	}{
		{
			name: "empty input is padded to three years",
			rows: nil,
			validate: func(t *testing.T, out []AnnualAccount) {
				for i, row := range out {
					assert.Equal(t, FiscalYears[i], row.Year)
					assert.True(t, row.Revenue.IsZero())
					assert.Nil(t, row.BalanceSheet)
				}
			},
		},
		{
			name: "rows are reordered by year",
			rows: []AnnualAccount{
				{Year: "2022-2023", Revenue: mustAmount(t, "3")},
				{Year: "2024-2025", Revenue: mustAmount(t, "1")},
			},
			validate: func(t *testing.T, out []AnnualAccount) {
				assert.Equal(t, "1", out[0].Revenue.String())
				assert.True(t, out[1].Revenue.IsZero())
				assert.Equal(t, "3", out[2].Revenue.String())
			},
		},
		{
			name: "unknown and duplicate years are dropped",
			rows: []AnnualAccount{
				{Year: "2019-2020", Revenue: mustAmount(t, "9")},
				{Year: "2023-2024", Revenue: mustAmount(t, "2")},
				{Year: "2023-2024", Revenue: mustAmount(t, "7")},
			},
			validate: func(t *testing.T, out []AnnualAccount) {
				assert.Equal(t, "2", out[1].Revenue.String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeAnnualAccounts(tt.rows)
			require.Len(t, out, 3)
			tt.validate(t, out)
		})
	}
}

func TestAmount_JSON(t *testing.T) {
	var row AnnualAccount
	require.NoError(t, json.Unmarshal([]byte(`{"year":"2024-2025","revenue":"1200.50","profitLoss":-300}`), &row))

	assert.Equal(t, "1200.5", row.Revenue.String())
	assert.Equal(t, "-300", row.ProfitLoss.String())

	out, err := json.Marshal(row.ProfitLoss)
	require.NoError(t, err)
	assert.Equal(t, "-300", string(out))
}

func TestApplication_DocumentCount(t *testing.T) {
	app := &Application{
		MoaFile:        StringPtr("https://bucket.s3.ap-south-1.amazonaws.com/moa-files/a.pdf"),
		AnnualAccounts: NormalizeAnnualAccounts(nil),
	}
	app.AnnualAccounts[0].BalanceSheet = StringPtr("https://x/b.pdf")
	app.WealthGrading.FundingObtained.Document = StringPtr("https://x/c.pdf")

	assert.Equal(t, 3, app.DocumentCount())
	assert.Len(t, app.GradingSelections(), 10)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(45, 20, 20)

	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasMore)
	assert.True(t, p.HasPrevious)

	last := NewPagination(45, 20, 40)
	assert.False(t, last.HasMore)

	empty := NewPagination(0, 20, 0)
	assert.Equal(t, 1, empty.CurrentPage)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasPrevious)
}

func mustAmount(t *testing.T, s string) Amount {
	t.Helper()
	a, err := ParseAmount(s)
	require.NoError(t, err)
	return a
}
