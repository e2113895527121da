package checkdocumentcompleteness

import (
	"context"
	"fmt"
	"testing"
	"time"

	"startup-intake/internal/common/errors"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketURL = "https://intake.s3.ap-south-1.amazonaws.com/"

type fakeReader struct {
	app *models.Application
	err error
}

func (f *fakeReader) GetByID(_ context.Context, _ int64) (*models.Application, error) {
	return f.app, f.err
}

func selection(value string) models.GradingSelection {
	return models.GradingSelection{Value: value, Label: value}
}

// completeApplication is a stored aggregate that needs no further documents.
func completeApplication() *models.Application {
	app := &models.Application{
		ID:                 11,
		StartupVideoLink:   "https://youtu.be/pitch",
		MoaFile:            models.StringPtr(bucketURL + "moa-files/moa.pdf"),
		ReconstructionFile: models.StringPtr(bucketURL + "reconstruction-files/r.pdf"),
		AnnualAccounts:     models.NormalizeAnnualAccounts(nil),
	}
	for i := range app.AnnualAccounts {
		app.AnnualAccounts[i].Revenue = models.ZeroAmount()
		app.AnnualAccounts[i].ProfitLoss = models.ZeroAmount()
	}
	app.InnovationGrading = models.InnovationGrading{
		IntellectualProperty:          selection("NOT_FILED"),
		AchievementsAwards:            selection("NO_AWARD"),
		StageOfProductService:         selection("IDEATION"),
		EmploymentOfResearchPersonnel: selection("EMP_PHD_0"),
	}
	app.WealthGrading = models.WealthGrading{
		FundingObtained:   selection("NO_FUNDING"),
		RevenueGeneration: selection("NO_REVENUE"),
		Profitability:     selection("LOSS"),
	}
	app.EmploymentCreation = models.EmploymentCreation{
		DirectEmployment:         selection("EMP_LESS_20"),
		PwdFemaleEmploymentCount: selection("PERCENT_0"),
		EmployeeNonMetroCities:   selection("PERCENT_0"),
	}
	return app
}

func newTestHandler(t *testing.T, reader ApplicationReader) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, reader, logger.NewTestLogger(t))
}

func TestExecute_Complete(t *testing.T) {
	out, err := newTestHandler(t, &fakeReader{app: completeApplication()}).
		Execute(context.Background(), &Input{ApplicationID: 11})

	require.NoError(t, err)
	assert.True(t, out.IsComplete)
	assert.Empty(t, out.MissingDocuments)
	assert.NotNil(t, out.MissingDocuments)
	assert.Empty(t, out.ValidationErrors)
}

func TestExecute_MissingDocuments(t *testing.T) {
	app := completeApplication()
	app.MoaFile = nil
	app.InnovationGrading.IntellectualProperty = selection("FILED")

	out, err := newTestHandler(t, &fakeReader{app: app}).
		Execute(context.Background(), &Input{ApplicationID: 11})

	require.NoError(t, err)
	assert.False(t, out.IsComplete)
	assert.ElementsMatch(t, []string{
		"moaFile",
		"innovationGrading.intellectualProperty.document",
	}, out.MissingDocuments)
	assert.Len(t, out.ValidationErrors, 2)
}

func TestExecute_StoredDocumentSatisfiesRequirement(t *testing.T) {
	app := completeApplication()
	app.InnovationGrading.IntellectualProperty = models.GradingSelection{
		Value:    "FILED",
		Label:    "Filed",
		Document: models.StringPtr(bucketURL + "innovation-grading-docs/p.pdf"),
	}

	out, err := newTestHandler(t, &fakeReader{app: app}).
		Execute(context.Background(), &Input{ApplicationID: 11})

	require.NoError(t, err)
	assert.True(t, out.IsComplete)
}

func TestExecute_NonDocumentErrorsAreNotMissingDocuments(t *testing.T) {
	app := completeApplication()
	app.WealthGrading.Profitability = models.GradingSelection{}

	out, err := newTestHandler(t, &fakeReader{app: app}).
		Execute(context.Background(), &Input{ApplicationID: 11})

	require.NoError(t, err)
	assert.False(t, out.IsComplete)
	assert.Empty(t, out.MissingDocuments)
	require.Len(t, out.ValidationErrors, 1)
	assert.Equal(t, "wealthGrading.profitability", out.ValidationErrors[0].Field)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		id    int64
		err   error
		code  errors.ErrorCode
		retry bool
	}{
		{name: "invalid id", id: 0, code: errors.ErrCodeInvalidRequest},
		{name: "not found", id: 5, err: fmt.Errorf("%w: id 5", store.ErrNotFound), code: errors.ErrCodeApplicationNotFound},
		{name: "query failure", id: 5, err: store.ErrQueryFailed, code: errors.ErrCodeQueryExecutionFailed, retry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestHandler(t, &fakeReader{err: tt.err}).
				Execute(context.Background(), &Input{ApplicationID: tt.id})

			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retry, stdErr.Retryable)
		})
	}
}
