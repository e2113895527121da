// Package policy holds the field requirement table for the startup application
// form. Every decision about which fields are required and which grading
// options need a supporting document is made here.
package policy

import (
	"regexp"
	"strings"

	"startup-intake/internal/models"
)

type FieldKind string

const (
	KindDocument FieldKind = "document"
	KindURL      FieldKind = "url"
	KindNumber   FieldKind = "number"
	KindGrading  FieldKind = "grading"
)

// FieldRule describes a plain (non-grading) field.
type FieldRule struct {
	Path     string    `json:"path"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	DocRequired bool   `json:"docRequired"`
}

// GradingField is a selection field with a fixed option set.
type GradingField struct {
	Path     string   `json:"path"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []Option `json:"options"`
}

// Table is the serialisable view of the whole policy.
type Table struct {
	Fields        []FieldRule    `json:"fields"`
	GradingFields []GradingField `json:"gradingFields"`
}

var percentBands = []Option{
	{Value: "PERCENT_0", Label: "0%", DocRequired: false},
	{Value: "PERCENT_1_25", Label: "1-25% (more than 0, including 25%)", DocRequired: true},
	{Value: "PERCENT_25_50", Label: "25-50% (Including 50%)", DocRequired: true},
	{Value: "PERCENT_ABOVE_50", Label: ">50%", DocRequired: true},
}

var fieldRules = []FieldRule{
	{Path: "startupVideoLink", Kind: KindURL, Required: true},
	{Path: "moaFile", Kind: KindDocument, Required: true},
	{Path: "reconstructionFile", Kind: KindDocument, Required: true},
	{Path: "incomeTaxReturns.fy2024_25", Kind: KindDocument},
	{Path: "incomeTaxReturns.fy2023_24", Kind: KindDocument},
	{Path: "incomeTaxReturns.fy2022_23", Kind: KindDocument},
	{Path: "annualAccounts[].revenue", Kind: KindNumber, Required: true},
	{Path: "annualAccounts[].profitLoss", Kind: KindNumber, Required: true},
	{Path: "annualAccounts[].balanceSheet", Kind: KindDocument},
	{Path: "annualAccounts[].profitLossDoc", Kind: KindDocument},
}

var gradingFields = []GradingField{
	{
		Path: "innovationGrading.intellectualProperty", Label: "Intellectual Property", Required: true,
		Options: []Option{
			{Value: "NOT_FILED", Label: "Not filed"},
			{Value: "FILED", Label: "Filed (Patents/Copyrights/Industrial Designs)", DocRequired: true},
			{Value: "PUBLISHED", Label: "Published in the Official Journal (Patents/Copyrights/Industrial Designs)", DocRequired: true},
			{Value: "GRANTED", Label: "Granted (Patents/Copyrights/Industrial Designs)", DocRequired: true},
		},
	},
	{
		Path: "innovationGrading.achievementsAwards", Label: "Achievements & Awards", Required: true,
		Options: []Option{
			{Value: "NO_AWARD", Label: "No Awards from specified categories"},
			{Value: "DISTRICT_AWARD", Label: "District-level Awards", DocRequired: true},
			{Value: "STATE_AWARD", Label: "State-level Awards", DocRequired: true},
			{Value: "NATIONAL_AWARD", Label: "National / Intl Awards", DocRequired: true},
		},
	},
	{
		Path: "innovationGrading.stageOfProductService", Label: "Stage of Product/Service", Required: true,
		Options: []Option{
			{Value: "IDEATION", Label: "Ideation"},
			{Value: "VALIDATION", Label: "Validation (Proof of Concept)", DocRequired: true},
			{Value: "EARLY_TRACTION", Label: "Early Traction", DocRequired: true},
			{Value: "SCALING", Label: "Scaling (≥10% growth)", DocRequired: true},
		},
	},
	{
		Path: "innovationGrading.employmentOfResearchPersonnel", Label: "Employment of Research Personnel (PhD)", Required: true,
		Options: []Option{
			{Value: "EMP_PHD_0", Label: "0%"},
			{Value: "EMP_PHD_1_10", Label: "1-10%", DocRequired: true},
			{Value: "EMP_PHD_10_25", Label: "10-25%", DocRequired: true},
			{Value: "EMP_PHD_ABOVE_25", Label: ">25%", DocRequired: true},
		},
	},
	{
		Path: "wealthGrading.fundingObtained", Label: "Funding Obtained", Required: true,
		Options: []Option{
			{Value: "NO_FUNDING", Label: "No Funding Obtained / Bootstrapped"},
			{Value: "FUNDING_UPTO_1CR", Label: "Upto 1 Cr (including 1 Cr)", DocRequired: true},
			{Value: "FUNDING_1_10CR", Label: "From 1 Cr to 10 Cr (Including 10 Cr)", DocRequired: true},
			{Value: "FUNDING_ABOVE_10CR", Label: "More than 10 Cr", DocRequired: true},
		},
	},
	{
		Path: "wealthGrading.revenueGeneration", Label: "Revenue Generation", Required: true,
		Options: []Option{
			{Value: "NO_REVENUE", Label: "No Revenue"},
			{Value: "REVENUE_UPTO_1CR", Label: "Revenue Upto 1 Cr (including 1 Cr)", DocRequired: true},
			{Value: "REVENUE_1_10CR", Label: "Revenue 1-10 Cr (including 10 Cr)", DocRequired: true},
			{Value: "REVENUE_ABOVE_10CR", Label: "Revenue more than 10 Cr", DocRequired: true},
		},
	},
	{
		Path: "wealthGrading.profitability", Label: "Profitability", Required: true,
		Options: []Option{
			{Value: "LOSS", Label: "Incurring Loss"},
			{Value: "NO_PROFIT_NO_LOSS", Label: "No Profit / No Loss"},
			{Value: "PROFIT_LATEST_YEAR", Label: "Profit in latest Financial Year", DocRequired: true},
			{Value: "PROFIT_2_PLUS_YEARS", Label: "Profit for past 2+ years", DocRequired: true},
		},
	},
	{
		Path: "employmentCreation.directEmployment", Label: "Direct Employment", Required: true,
		Options: []Option{
			{Value: "EMP_LESS_20", Label: "Less than 20"},
			{Value: "EMP_21_50", Label: "Between 21 - 50", DocRequired: true},
			{Value: "EMP_51_100", Label: "Between 51 - 100", DocRequired: true},
			{Value: "EMP_ABOVE_100", Label: "More than 100", DocRequired: true},
		},
	},
	{
		Path: "employmentCreation.pwdFemaleEmploymentCount", Label: "Employment of Females, PwD, SC/ST persons", Required: true,
		Options: percentBands,
	},
	{
		Path: "employmentCreation.employeeNonMetroCities", Label: "Employees based in Non Metro Cities", Required: true,
		Options: percentBands,
	},
}

var (
	rulesByPath   = map[string]FieldRule{}
	gradingByPath = map[string]GradingField{}
	indexPattern  = regexp.MustCompile(`\[\d+\]`)
)

func init() {
	for _, r := range fieldRules {
		rulesByPath[r.Path] = r
	}
	for _, g := range gradingFields {
		gradingByPath[g.Path] = g
	}
}

// normalize maps "annualAccounts[2].revenue" to "annualAccounts[].revenue".
func normalize(path string) string {
	return indexPattern.ReplaceAllString(strings.TrimSpace(path), "[]")
}

// IsRequired reports whether a value must be present at path.
func IsRequired(path string) bool {
	p := normalize(path)
	if r, ok := rulesByPath[p]; ok {
		return r.Required
	}
	if g, ok := gradingByPath[p]; ok {
		return g.Required
	}
	return false
}

// IsDocumentRequired reports whether selecting value for the grading field at
// path needs a supporting document. Unset values, unknown fields and unknown
// options all yield false.
func IsDocumentRequired(path, value string) bool {
	if value == "" {
		return false
	}
	opt, ok := LookupOption(path, value)
	if !ok {
		return false
	}
	return opt.DocRequired
}

// LookupOption finds value in the option set of the grading field at path.
func LookupOption(path, value string) (Option, bool) {
	g, ok := gradingByPath[normalize(path)]
	if !ok {
		return Option{}, false
	}
	for _, opt := range g.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Rule returns the plain field rule for path.
func Rule(path string) (FieldRule, bool) {
	r, ok := rulesByPath[normalize(path)]
	return r, ok
}

// Grading returns the grading field definition for path.
func Grading(path string) (GradingField, bool) {
	g, ok := gradingByPath[normalize(path)]
	return g, ok
}

// GradingFields returns the grading field definitions in form order.
func GradingFields() []GradingField {
	out := make([]GradingField, len(gradingFields))
	copy(out, gradingFields)
	return out
}

// Export returns the full table for clients that render the form.
func Export() Table {
	fields := make([]FieldRule, len(fieldRules))
	copy(fields, fieldRules)
	return Table{Fields: fields, GradingFields: GradingFields()}
}

// Annotate recomputes DocRequired on every grading selection of app from the
// stored value. It returns the paths whose values have no matching option.
func Annotate(app *models.Application) []string {
	var unknown []string
	for _, s := range app.GradingSelections() {
		s.Selection.DocRequired = IsDocumentRequired(s.Path, s.Selection.Value)
		if s.Selection.Value != "" {
			if _, ok := LookupOption(s.Path, s.Selection.Value); !ok {
				unknown = append(unknown, s.Path)
			}
		}
	}
	return unknown
}
