package validation

import (
	"testing"

	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/upload"
	"startup-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdf(name string) *upload.File {
	return &upload.File{FileName: name, Size: 2048, ContentType: "application/pdf"}
}

func sel(value string) *form.SelectionDraft {
	return &form.SelectionDraft{Value: value, Label: value}
}

func amount(t *testing.T, s string) form.Number {
	t.Helper()
	a, err := models.ParseAmount(s)
	require.NoError(t, err)
	return form.NumberOf(a)
}

// validCreateDraft returns a draft that passes create-mode validation using
// only options that need no supporting documents.
func validCreateDraft(t *testing.T) *form.Draft {
	link := "https://youtu.be/pitch"
	d := &form.Draft{
		StartupVideoLink:   &link,
		MoaFile:            form.Upload(pdf("moa.pdf")),
		ReconstructionFile: form.Upload(pdf("recon.pdf")),
	}
	for _, year := range models.FiscalYears {
		d.AnnualAccounts = append(d.AnnualAccounts, form.AnnualAccountDraft{
			Year:       year,
			Revenue:    amount(t, "0"),
			ProfitLoss: amount(t, "-500"),
		})
	}
	d.InnovationGrading = form.InnovationDraft{
		IntellectualProperty:          sel("NOT_FILED"),
		AchievementsAwards:            sel("NO_AWARD"),
		StageOfProductService:         sel("IDEATION"),
		EmploymentOfResearchPersonnel: sel("EMP_PHD_0"),
	}
	d.WealthGrading = form.WealthDraft{
		FundingObtained:   sel("NO_FUNDING"),
		RevenueGeneration: sel("NO_REVENUE"),
		Profitability:     sel("LOSS"),
	}
	d.EmploymentCreation = form.EmploymentDraft{
		DirectEmployment:         sel("EMP_LESS_20"),
		PwdFemaleEmploymentCount: sel("PERCENT_0"),
		EmployeeNonMetroCities:   sel("PERCENT_0"),
	}
	return d
}

func storedSnapshot() *models.Application {
	app := &models.Application{
		ID:                 42,
		StartupVideoLink:   "https://youtu.be/pitch",
		MoaFile:            models.StringPtr("https://intake.s3.ap-south-1.amazonaws.com/moa-files/moa.pdf"),
		ReconstructionFile: models.StringPtr("https://intake.s3.ap-south-1.amazonaws.com/reconstruction-files/r.pdf"),
		AnnualAccounts:     models.NormalizeAnnualAccounts(nil),
	}
	app.InnovationGrading.IntellectualProperty = models.GradingSelection{
		Value:    "FILED",
		Label:    "Filed",
		Document: models.StringPtr("https://intake.s3.ap-south-1.amazonaws.com/innovation-grading-docs/p.pdf"),
	}
	return app
}

func TestValidate_CreateValid(t *testing.T) {
	res := Validate(validCreateDraft(t), ModeCreate, nil)
	assert.True(t, res.Valid(), "%v", res.Errors)
}

func TestValidate_EmptyDraftReportsEveryRequiredField(t *testing.T) {
	res := Validate(&form.Draft{}, ModeCreate, nil)

	fields := res.ByField()
	for _, path := range []string{
		"startupVideoLink",
		"moaFile",
		"reconstructionFile",
		"annualAccounts[0].revenue",
		"annualAccounts[0].profitLoss",
		"annualAccounts[2].revenue",
		"innovationGrading.intellectualProperty",
		"wealthGrading.profitability",
		"employmentCreation.employeeNonMetroCities",
	} {
		assert.Contains(t, fields, path)
	}
	assert.Len(t, res.Errors, 3+6+10)
	for _, e := range res.Errors {
		assert.Equal(t, CodeRequired, e.Code)
	}
}

func TestValidate_Create(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *form.Draft)
		field  string
		code   string
	}{
		{
			name:   "missing moa file",
			mutate: func(d *form.Draft) { d.MoaFile = form.DocField{} },
			field:  "moaFile", code: CodeRequired,
		},
		{
			name:   "kept url is not trusted on create",
			mutate: func(d *form.Draft) { d.MoaFile = form.Kept("https://x/moa.pdf") },
			field:  "moaFile", code: CodeRequired,
		},
		{
			name: "whitespace video link",
			mutate: func(d *form.Draft) {
				s := "   "
				d.StartupVideoLink = &s
			},
			field: "startupVideoLink", code: CodeRequired,
		},
		{
			name: "malformed video link",
			mutate: func(d *form.Draft) {
				s := "youtube.com/watch?v=1"
				d.StartupVideoLink = &s
			},
			field: "startupVideoLink", code: CodeInvalidURL,
		},
		{
			name:   "doc required option without upload",
			mutate: func(d *form.Draft) { d.InnovationGrading.IntellectualProperty = sel("FILED") },
			field:  "innovationGrading.intellectualProperty.document", code: CodeDocumentRequired,
		},
		{
			name: "client doc flag is ignored",
			mutate: func(d *form.Draft) {
				no := false
				s := sel("PROFIT_LATEST_YEAR")
				s.DocRequired = &no
				d.WealthGrading.Profitability = s
			},
			field: "wealthGrading.profitability.document", code: CodeDocumentRequired,
		},
		{
			name:   "negative revenue",
			mutate: func(d *form.Draft) { d.AnnualAccounts[1].Revenue = amount(t, "-1") },
			field:  "annualAccounts[1].revenue", code: CodeNegativeValue,
		},
		{
			name:   "missing profit loss",
			mutate: func(d *form.Draft) { d.AnnualAccounts[2].ProfitLoss = form.Number{} },
			field:  "annualAccounts[2].profitLoss", code: CodeRequired,
		},
		{
			name:   "non numeric revenue",
			mutate: func(d *form.Draft) { d.AnnualAccounts[0].Revenue = form.Number{Set: true, Raw: "ten"} },
			field:  "annualAccounts[0].revenue", code: CodeInvalidNumber,
		},
		{
			name:   "revenue beyond two decimal places",
			mutate: func(d *form.Draft) { d.AnnualAccounts[0].Revenue = amount(t, "1234.5678") },
			field:  "annualAccounts[0].revenue", code: CodeInvalidNumber,
		},
		{
			name:   "sub cent loss",
			mutate: func(d *form.Draft) { d.AnnualAccounts[1].ProfitLoss = amount(t, "-0.001") },
			field:  "annualAccounts[1].profitLoss", code: CodeInvalidNumber,
		},
		{
			name:   "revenue too large for the column",
			mutate: func(d *form.Draft) { d.AnnualAccounts[2].Revenue = amount(t, "1e16") },
			field:  "annualAccounts[2].revenue", code: CodeInvalidNumber,
		},
		{
			name:   "loss too large for the column",
			mutate: func(d *form.Draft) { d.AnnualAccounts[2].ProfitLoss = amount(t, "-1e30") },
			field:  "annualAccounts[2].profitLoss", code: CodeInvalidNumber,
		},
		{
			name:   "missing year row",
			mutate: func(d *form.Draft) { d.AnnualAccounts = d.AnnualAccounts[:2] },
			field:  "annualAccounts[2].revenue", code: CodeRequired,
		},
		{
			name:   "disallowed file type",
			mutate: func(d *form.Draft) { d.IncomeTaxReturns.FY2024_25 = form.Upload(&upload.File{FileName: "itr.exe", Size: 10}) },
			field:  "incomeTaxReturns.fy2024_25", code: CodeFileTypeNotAllowed,
		},
		{
			name:   "oversized file",
			mutate: func(d *form.Draft) { d.MoaFile = form.Upload(&upload.File{FileName: "moa.pdf", Size: 11 << 20}) },
			field:  "moaFile", code: CodeFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validCreateDraft(t)
			tt.mutate(d)

			res := Validate(d, ModeCreate, nil)

			assert.False(t, res.Valid())
			assert.True(t, res.Has(tt.field, tt.code), "errors: %v", res.Errors)
		})
	}
}

func TestValidate_ZeroAndNegativeProfitAreValid(t *testing.T) {
	d := validCreateDraft(t)
	d.AnnualAccounts[0].ProfitLoss = amount(t, "0")
	d.AnnualAccounts[1].ProfitLoss = amount(t, "-99999.99")

	assert.True(t, Validate(d, ModeCreate, nil).Valid())
}

func TestValidate_AmountsThatFitTheColumn(t *testing.T) {
	d := validCreateDraft(t)
	d.AnnualAccounts[0].Revenue = amount(t, "9999999999999999.99")
	d.AnnualAccounts[1].Revenue = amount(t, "1.500")
	d.AnnualAccounts[2].ProfitLoss = amount(t, "-9999999999999999.99")

	res := Validate(d, ModeCreate, nil)
	assert.True(t, res.Valid(), "%v", res.Errors)
}

func TestValidate_AnnualErrorsUseSubmittedPosition(t *testing.T) {
	d := validCreateDraft(t)
	d.AnnualAccounts[0], d.AnnualAccounts[2] = d.AnnualAccounts[2], d.AnnualAccounts[0]
	d.AnnualAccounts[0].Revenue = amount(t, "-10")
	require.Equal(t, "2022-2023", d.AnnualAccounts[0].Year)

	res := Validate(d, ModeCreate, nil)

	assert.True(t, res.Has("annualAccounts[0].revenue", CodeNegativeValue), "errors: %v", res.Errors)
	assert.False(t, res.Has("annualAccounts[2].revenue", CodeNegativeValue))
}

func TestValidate_EditUsesSnapshot(t *testing.T) {
	snapshot := storedSnapshot()

	t.Run("required files on record satisfy edit", func(t *testing.T) {
		d := validCreateDraft(t)
		d.MoaFile = form.DocField{}
		d.ReconstructionFile = form.DocField{}

		res := Validate(d, ModeEdit, snapshot)
		assert.True(t, res.Valid(), "%v", res.Errors)
	})

	t.Run("not filed to filed without any document fails", func(t *testing.T) {
		bare := storedSnapshot()
		bare.InnovationGrading.IntellectualProperty = models.GradingSelection{Value: "NOT_FILED"}

		d := validCreateDraft(t)
		d.InnovationGrading.IntellectualProperty = sel("FILED")

		res := Validate(d, ModeEdit, bare)
		assert.True(t, res.Has("innovationGrading.intellectualProperty.document", CodeDocumentRequired))
	})

	t.Run("not filed to filed with a snapshot url passes", func(t *testing.T) {
		d := validCreateDraft(t)
		d.InnovationGrading.IntellectualProperty = sel("FILED")

		res := Validate(d, ModeEdit, snapshot)
		assert.True(t, res.Valid(), "%v", res.Errors)
	})

	t.Run("same draft fails in create mode", func(t *testing.T) {
		d := validCreateDraft(t)
		d.InnovationGrading.IntellectualProperty = sel("FILED")

		res := Validate(d, ModeCreate, snapshot)
		assert.True(t, res.Has("innovationGrading.intellectualProperty.document", CodeDocumentRequired))
	})

	t.Run("explicit removal withdraws snapshot credit", func(t *testing.T) {
		d := validCreateDraft(t)
		d.MoaFile = form.Removed()

		res := Validate(d, ModeEdit, snapshot)
		assert.True(t, res.Has("moaFile", CodeRequired))
	})

	t.Run("removing a document that is no longer required passes", func(t *testing.T) {
		d := validCreateDraft(t)
		s := sel("NOT_FILED")
		s.Document = form.Removed()
		d.InnovationGrading.IntellectualProperty = s

		res := Validate(d, ModeEdit, snapshot)
		assert.True(t, res.Valid(), "%v", res.Errors)
	})
}

func TestValidate_IsRepeatable(t *testing.T) {
	d := &form.Draft{}
	first := Validate(d, ModeCreate, nil)
	second := Validate(d, ModeCreate, nil)

	assert.Equal(t, first, second)
	assert.Nil(t, d.InnovationGrading.IntellectualProperty)
	assert.Empty(t, d.AnnualAccounts)
}

func TestValidate_StoredApplicationRoundTrip(t *testing.T) {
	app := storedSnapshot()
	for i := range app.AnnualAccounts {
		app.AnnualAccounts[i].Revenue = models.ZeroAmount()
	}
	d := form.FromApplication(app)

	res := Validate(d, ModeEdit, app)

	// Only the grading fields the snapshot never answered are missing.
	assert.False(t, res.Has("moaFile", CodeRequired))
	assert.False(t, res.Has("innovationGrading.intellectualProperty.document", CodeDocumentRequired))
	assert.True(t, res.Has("wealthGrading.profitability", CodeRequired))
}

func TestWithMaxFileBytes(t *testing.T) {
	d := validCreateDraft(t)
	res := Validate(d, ModeCreate, nil, WithMaxFileBytes(1024))

	assert.True(t, res.Has("moaFile", CodeFileTooLarge))
	assert.Contains(t, res.ByField()["moaFile"], "1 KB")
}
