package form

import "startup-intake/internal/models"

// FromApplication builds the draft a client produces when it sends a stored
// aggregate back unchanged: every stored reference is kept and every empty
// leaf is left untouched.
func FromApplication(app *models.Application) *Draft {
	link := app.StartupVideoLink
	d := &Draft{
		StartupVideoLink:   &link,
		MoaFile:            keep(app.MoaFile),
		ReconstructionFile: keep(app.ReconstructionFile),
		IncomeTaxReturns: IncomeTaxDraft{
			FY2024_25: keep(app.IncomeTaxReturns.FY2024_25),
			FY2023_24: keep(app.IncomeTaxReturns.FY2023_24),
			FY2022_23: keep(app.IncomeTaxReturns.FY2022_23),
		},
	}

	for _, row := range app.AnnualAccounts {
		d.AnnualAccounts = append(d.AnnualAccounts, AnnualAccountDraft{
			Year:          row.Year,
			Revenue:       NumberOf(row.Revenue),
			ProfitLoss:    NumberOf(row.ProfitLoss),
			BalanceSheet:  keep(row.BalanceSheet),
			ProfitLossDoc: keep(row.ProfitLossDoc),
		})
	}

	stored := app.GradingSelections()
	for i, slot := range d.selectionSlots() {
		sel := stored[i].Selection
		flag := sel.DocRequired
		*slot.slot = &SelectionDraft{
			Value:       sel.Value,
			Label:       sel.Label,
			DocRequired: &flag,
			Document:    keep(sel.Document),
		}
	}
	return d
}

func keep(ref *string) DocField {
	if ref == nil || *ref == "" {
		return DocField{}
	}
	return Kept(*ref)
}
