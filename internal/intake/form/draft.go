// Package form models an incoming application draft and decodes it from the
// multipart wire format. Document leaves keep the distinction between a key
// that was never sent, an explicit null, a kept URL and a fresh upload.
package form

import (
	"bytes"
	"encoding/json"
	"strings"

	"startup-intake/internal/intake/docref"
	"startup-intake/internal/intake/upload"
	"startup-intake/internal/models"
)

type DocState int

const (
	// DocOmitted means the client did not send the leaf: no change.
	DocOmitted DocState = iota
	// DocRemoved means the client sent a literal null: clear the document.
	DocRemoved
	// DocKept means the client echoed back a reference it already holds.
	DocKept
	// DocUpload means a file part arrived for the leaf in this request.
	DocUpload
)

func (s DocState) String() string {
	switch s {
	case DocRemoved:
		return "removed"
	case DocKept:
		return "kept"
	case DocUpload:
		return "upload"
	}
	return "omitted"
}

// DocField is one document leaf of the draft.
type DocField struct {
	State DocState
	URL   string
	File  *upload.File
}

func Removed() DocField { return DocField{State: DocRemoved} }

func Kept(url string) DocField { return DocField{State: DocKept, URL: url} }

func Upload(f *upload.File) DocField { return DocField{State: DocUpload, File: f} }

// UnmarshalJSON maps null to removal and a non-empty string to a kept
// reference. Empty strings and objects (a serialised browser File) are omitted.
func (d *DocField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Removed()
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = DocField{}
			return nil
		}
		*d = Kept(s)
		return nil
	}
	*d = DocField{}
	return nil
}

// Number is a required numeric input that may arrive as a JSON number or a
// numeric string from a form input.
type Number struct {
	Set   bool
	Valid bool
	Raw   string
	Value models.Amount
}

func NumberOf(a models.Amount) Number {
	return Number{Set: true, Valid: true, Raw: a.String(), Value: a}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = Number{}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	n.Set = true
	n.Raw = raw
	if a, err := models.ParseAmount(raw); err == nil {
		n.Valid = true
		n.Value = a
	}
	return nil
}

type IncomeTaxDraft struct {
	FY2024_25 DocField `json:"fy2024_25"`
	FY2023_24 DocField `json:"fy2023_24"`
	FY2022_23 DocField `json:"fy2022_23"`
}

type AnnualAccountDraft struct {
	Year          string   `json:"year"`
	Revenue       Number   `json:"revenue"`
	ProfitLoss    Number   `json:"profitLoss"`
	BalanceSheet  DocField `json:"balanceSheet"`
	ProfitLossDoc DocField `json:"profitLossDoc"`
}

// SelectionDraft is a submitted grading selection. DocRequired is the
// client's rendering hint and is never consulted.
type SelectionDraft struct {
	Value       string   `json:"value"`
	Label       string   `json:"label"`
	DocRequired *bool    `json:"docRequired"`
	Document    DocField `json:"document"`
}

type InnovationDraft struct {
	IntellectualProperty          *SelectionDraft `json:"intellectualProperty"`
	AchievementsAwards            *SelectionDraft `json:"achievementsAwards"`
	StageOfProductService         *SelectionDraft `json:"stageOfProductService"`
	EmploymentOfResearchPersonnel *SelectionDraft `json:"employmentOfResearchPersonnel"`
}

type WealthDraft struct {
	FundingObtained   *SelectionDraft `json:"fundingObtained"`
	RevenueGeneration *SelectionDraft `json:"revenueGeneration"`
	Profitability     *SelectionDraft `json:"profitability"`
}

type EmploymentDraft struct {
	DirectEmployment         *SelectionDraft `json:"directEmployment"`
	PwdFemaleEmploymentCount *SelectionDraft `json:"pwdFemaleEmploymentCount"`
	EmployeeNonMetroCities   *SelectionDraft `json:"employeeNonMetroCities"`
}

// Draft is the nested application state submitted by the client.
type Draft struct {
	StartupVideoLink   *string
	MoaFile            DocField
	ReconstructionFile DocField
	IncomeTaxReturns   IncomeTaxDraft
	AnnualAccounts     []AnnualAccountDraft
	InnovationGrading  InnovationDraft
	WealthGrading      WealthDraft
	EmploymentCreation EmploymentDraft
}

// DraftSelection pairs a grading field path with the submitted selection,
// which is nil when the client sent nothing for the field.
type DraftSelection struct {
	Path      string
	Selection *SelectionDraft
}

func (d *Draft) selectionSlots() []struct {
	path string
	slot **SelectionDraft
} {
	return []struct {
		path string
		slot **SelectionDraft
	}{
		{"innovationGrading.intellectualProperty", &d.InnovationGrading.IntellectualProperty},
		{"innovationGrading.achievementsAwards", &d.InnovationGrading.AchievementsAwards},
		{"innovationGrading.stageOfProductService", &d.InnovationGrading.StageOfProductService},
		{"innovationGrading.employmentOfResearchPersonnel", &d.InnovationGrading.EmploymentOfResearchPersonnel},
		{"wealthGrading.fundingObtained", &d.WealthGrading.FundingObtained},
		{"wealthGrading.revenueGeneration", &d.WealthGrading.RevenueGeneration},
		{"wealthGrading.profitability", &d.WealthGrading.Profitability},
		{"employmentCreation.directEmployment", &d.EmploymentCreation.DirectEmployment},
		{"employmentCreation.pwdFemaleEmploymentCount", &d.EmploymentCreation.PwdFemaleEmploymentCount},
		{"employmentCreation.employeeNonMetroCities", &d.EmploymentCreation.EmployeeNonMetroCities},
	}
}

// GradingSelections lists the ten grading fields in form order.
func (d *Draft) GradingSelections() []DraftSelection {
	slots := d.selectionSlots()
	out := make([]DraftSelection, len(slots))
	for i, s := range slots {
		out[i] = DraftSelection{Path: s.path, Selection: *s.slot}
	}
	return out
}

// IndexedRow is a submitted annual-account row together with the position it
// was submitted at, which is the index its upload parts are keyed by.
type IndexedRow struct {
	Index int
	Row   *AnnualAccountDraft
}

// AnnualRows assigns submitted rows to the three fiscal years. A row is matched
// by its year label; a row without a label takes the year of its position when
// no labelled row claimed it. Unmatched years are nil.
func (d *Draft) AnnualRows() []IndexedRow {
	out := make([]IndexedRow, len(models.FiscalYears))
	claimed := make([]bool, len(models.FiscalYears))

	for i := range d.AnnualAccounts {
		row := &d.AnnualAccounts[i]
		idx := models.YearIndex(strings.TrimSpace(row.Year))
		if idx < 0 || claimed[idx] {
			continue
		}
		out[idx] = IndexedRow{Index: i, Row: row}
		claimed[idx] = true
	}
	for i := range d.AnnualAccounts {
		row := &d.AnnualAccounts[i]
		if strings.TrimSpace(row.Year) != "" || i >= len(claimed) || claimed[i] {
			continue
		}
		out[i] = IndexedRow{Index: i, Row: row}
		claimed[i] = true
	}
	return out
}

// Leaf returns the document field stored at a leaf path, allocating the
// enclosing selection or annual row when needed. It returns nil for paths that
// are not document leaves and for annual rows beyond the submitted set and the
// three fiscal years.
func (d *Draft) Leaf(path string) *DocField {
	switch path {
	case "moaFile":
		return &d.MoaFile
	case "reconstructionFile":
		return &d.ReconstructionFile
	case "incomeTaxReturns.fy2024_25":
		return &d.IncomeTaxReturns.FY2024_25
	case "incomeTaxReturns.fy2023_24":
		return &d.IncomeTaxReturns.FY2023_24
	case "incomeTaxReturns.fy2022_23":
		return &d.IncomeTaxReturns.FY2022_23
	}

	if idx, field, ok := docref.ParseAnnualLeaf(path); ok {
		if idx >= len(d.AnnualAccounts) && idx >= len(models.FiscalYears) {
			return nil
		}
		for len(d.AnnualAccounts) <= idx {
			d.AnnualAccounts = append(d.AnnualAccounts, AnnualAccountDraft{})
		}
		if field == "balanceSheet" {
			return &d.AnnualAccounts[idx].BalanceSheet
		}
		return &d.AnnualAccounts[idx].ProfitLossDoc
	}

	for _, s := range d.selectionSlots() {
		if path == s.path+".document" {
			if *s.slot == nil {
				*s.slot = &SelectionDraft{}
			}
			return &(*s.slot).Document
		}
	}
	return nil
}

// LeafRef is a document leaf of a draft with its wire path.
type LeafRef struct {
	Path  string
	Field *DocField
}

// DocumentLeaves lists every document leaf the draft holds without
// allocating missing selections. Annual leaves use the submitted row index.
func (d *Draft) DocumentLeaves() []LeafRef {
	out := []LeafRef{
		{"moaFile", &d.MoaFile},
		{"reconstructionFile", &d.ReconstructionFile},
		{"incomeTaxReturns.fy2024_25", &d.IncomeTaxReturns.FY2024_25},
		{"incomeTaxReturns.fy2023_24", &d.IncomeTaxReturns.FY2023_24},
		{"incomeTaxReturns.fy2022_23", &d.IncomeTaxReturns.FY2022_23},
	}
	for i := range d.AnnualAccounts {
		out = append(out,
			LeafRef{docref.AnnualLeaf(i, "balanceSheet"), &d.AnnualAccounts[i].BalanceSheet},
			LeafRef{docref.AnnualLeaf(i, "profitLossDoc"), &d.AnnualAccounts[i].ProfitLossDoc},
		)
	}
	for _, s := range d.selectionSlots() {
		if *s.slot != nil {
			out = append(out, LeafRef{docref.GradingLeaf(s.path), &(*s.slot).Document})
		}
	}
	return out
}
