package form

import "startup-intake/internal/common/validation"

// Document leaves accept a URL string, null, or the empty object a browser
// File serialises to.
const docLeafSchema = `{"type": ["string", "null", "object"]}`

const selectionSchema = `{
	"type": ["object", "null"],
	"properties": {
		"value": {"type": ["string", "null"]},
		"label": {"type": ["string", "null"]},
		"docRequired": {"type": ["boolean", "null"]},
		"document": ` + docLeafSchema + `
	}
}`

var sectionSchemas = map[string]*validation.Schema{
	"incomeTaxReturns": validation.MustCompile(`{
		"type": ["object", "null"],
		"properties": {
			"fy2024_25": ` + docLeafSchema + `,
			"fy2023_24": ` + docLeafSchema + `,
			"fy2022_23": ` + docLeafSchema + `
		}
	}`),
	"annualAccounts": validation.MustCompile(`{
		"type": ["array", "null"],
		"maxItems": 10,
		"items": {
			"type": "object",
			"properties": {
				"year": {"type": ["string", "null"]},
				"revenue": {"type": ["number", "string", "null"]},
				"profitLoss": {"type": ["number", "string", "null"]},
				"balanceSheet": ` + docLeafSchema + `,
				"profitLossDoc": ` + docLeafSchema + `
			}
		}
	}`),
	"innovationGrading": validation.MustCompile(`{
		"type": ["object", "null"],
		"properties": {
			"intellectualProperty": ` + selectionSchema + `,
			"achievementsAwards": ` + selectionSchema + `,
			"stageOfProductService": ` + selectionSchema + `,
			"employmentOfResearchPersonnel": ` + selectionSchema + `
		}
	}`),
	"wealthGrading": validation.MustCompile(`{
		"type": ["object", "null"],
		"properties": {
			"fundingObtained": ` + selectionSchema + `,
			"revenueGeneration": ` + selectionSchema + `,
			"profitability": ` + selectionSchema + `
		}
	}`),
	"employmentCreation": validation.MustCompile(`{
		"type": ["object", "null"],
		"properties": {
			"directEmployment": ` + selectionSchema + `,
			"pwdFemaleEmploymentCount": ` + selectionSchema + `,
			"employeeNonMetroCities": ` + selectionSchema + `
		}
	}`),
}
