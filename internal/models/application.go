// internal/models/application.go
package models

import "time"

// FiscalYears are the three annual-account year labels, newest first.
var FiscalYears = []string{"2024-2025", "2023-2024", "2022-2023"}

// YearIndex returns the canonical position of an annual-account year label, or -1.
func YearIndex(year string) int {
	for i, y := range FiscalYears {
		if y == year {
			return i
		}
	}
	return -1
}

// Application is the root aggregate persisted across the six intake tables.
type Application struct {
	ID                 int64              `json:"id"`
	StartupVideoLink   string             `json:"startupVideoLink"`
	MoaFile            *string            `json:"moaFile"`
	ReconstructionFile *string            `json:"reconstructionFile"`
	IncomeTaxReturns   IncomeTaxReturns   `json:"incomeTaxReturns"`
	AnnualAccounts     []AnnualAccount    `json:"annualAccounts"`
	InnovationGrading  InnovationGrading  `json:"innovationGrading"`
	WealthGrading      WealthGrading      `json:"wealthGrading"`
	EmploymentCreation EmploymentCreation `json:"employmentCreation"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type IncomeTaxReturns struct {
	FY2024_25 *string `json:"fy2024_25"`
	FY2023_24 *string `json:"fy2023_24"`
	FY2022_23 *string `json:"fy2022_23"`
}

type AnnualAccount struct {
	Year          string  `json:"year"`
	Revenue       Amount  `json:"revenue"`
	ProfitLoss    Amount  `json:"profitLoss"`
	BalanceSheet  *string `json:"balanceSheet"`
	ProfitLossDoc *string `json:"profitLossDoc"`
}

// GradingSelection is the shared shape of every grading field.
// DocRequired is derived from the requirement policy and never stored.
type GradingSelection struct {
	Value       string  `json:"value"`
	Label       string  `json:"label"`
	DocRequired bool    `json:"docRequired"`
	Document    *string `json:"document"`
}

type InnovationGrading struct {
	IntellectualProperty          GradingSelection `json:"intellectualProperty"`
	AchievementsAwards            GradingSelection `json:"achievementsAwards"`
	StageOfProductService         GradingSelection `json:"stageOfProductService"`
	EmploymentOfResearchPersonnel GradingSelection `json:"employmentOfResearchPersonnel"`
}

type WealthGrading struct {
	FundingObtained   GradingSelection `json:"fundingObtained"`
	RevenueGeneration GradingSelection `json:"revenueGeneration"`
	Profitability     GradingSelection `json:"profitability"`
}

type EmploymentCreation struct {
	DirectEmployment         GradingSelection `json:"directEmployment"`
	PwdFemaleEmploymentCount GradingSelection `json:"pwdFemaleEmploymentCount"`
	EmployeeNonMetroCities   GradingSelection `json:"employeeNonMetroCities"`
}

// NamedSelection pairs a grading selection with its dotted field path.
type NamedSelection struct {
	Path      string
	Selection *GradingSelection
}

// GradingSelections lists all ten grading fields in a fixed order.
func (a *Application) GradingSelections() []NamedSelection {
	return []NamedSelection{
		{"innovationGrading.intellectualProperty", &a.InnovationGrading.IntellectualProperty},
		{"innovationGrading.achievementsAwards", &a.InnovationGrading.AchievementsAwards},
		{"innovationGrading.stageOfProductService", &a.InnovationGrading.StageOfProductService},
		{"innovationGrading.employmentOfResearchPersonnel", &a.InnovationGrading.EmploymentOfResearchPersonnel},
		{"wealthGrading.fundingObtained", &a.WealthGrading.FundingObtained},
		{"wealthGrading.revenueGeneration", &a.WealthGrading.RevenueGeneration},
		{"wealthGrading.profitability", &a.WealthGrading.Profitability},
		{"employmentCreation.directEmployment", &a.EmploymentCreation.DirectEmployment},
		{"employmentCreation.pwdFemaleEmploymentCount", &a.EmploymentCreation.PwdFemaleEmploymentCount},
		{"employmentCreation.employeeNonMetroCities", &a.EmploymentCreation.EmployeeNonMetroCities},
	}
}

// DocumentCount returns how many document leaves hold a reference.
func (a *Application) DocumentCount() int {
	refs := []*string{
		a.MoaFile, a.ReconstructionFile,
		a.IncomeTaxReturns.FY2024_25, a.IncomeTaxReturns.FY2023_24, a.IncomeTaxReturns.FY2022_23,
	}
	for _, row := range a.AnnualAccounts {
		refs = append(refs, row.BalanceSheet, row.ProfitLossDoc)
	}
	for _, s := range a.GradingSelections() {
		refs = append(refs, s.Selection.Document)
	}

	n := 0
	for _, r := range refs {
		if r != nil && *r != "" {
			n++
		}
	}
	return n
}

// NormalizeAnnualAccounts returns exactly one row per fiscal year in canonical
// order. Rows for unknown years are dropped; missing years get zero values.
func NormalizeAnnualAccounts(rows []AnnualAccount) []AnnualAccount {
	out := make([]AnnualAccount, len(FiscalYears))
	seen := make([]bool, len(FiscalYears))
	for _, row := range rows {
		idx := YearIndex(row.Year)
		if idx < 0 || seen[idx] {
			continue
		}
		out[idx] = row
		seen[idx] = true
	}
	for i, year := range FiscalYears {
		if !seen[i] {
			out[i] = AnnualAccount{Year: year, Revenue: ZeroAmount(), ProfitLoss: ZeroAmount()}
		}
	}
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
