// Package reconcile turns a validated draft into the aggregate to persist.
//
// Every document leaf is resolved with the same precedence: an explicit
// removal clears it, otherwise a reference uploaded in this request wins,
// otherwise the existing reference is carried over unchanged. Scalars always
// come from the draft. A URL echoed back by the client is never stored as-is;
// only the existing aggregate and this request's uploads supply references.
package reconcile

import (
	"strings"

	"startup-intake/internal/intake/docref"
	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/models"
)

// Uploaded maps a document leaf path to the URL stored for it in this request.
type Uploaded map[string]string

// Materialize builds a new aggregate from a create draft.
func Materialize(d *form.Draft, uploaded Uploaded) *models.Application {
	return Reconcile(&models.Application{}, d, uploaded)
}

// Reconcile merges the draft and this request's uploads into existing and
// returns the complete aggregate to write. existing is not modified.
func Reconcile(existing *models.Application, d *form.Draft, uploaded Uploaded) *models.Application {
	if existing == nil {
		existing = &models.Application{}
	}
	m := merger{uploaded: uploaded}

	out := &models.Application{
		ID:               existing.ID,
		StartupVideoLink: existing.StartupVideoLink,
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        existing.UpdatedAt,
	}
	if d.StartupVideoLink != nil {
		out.StartupVideoLink = strings.TrimSpace(*d.StartupVideoLink)
	}

	out.MoaFile = m.leaf("moaFile", existing.MoaFile, d.MoaFile)
	out.ReconstructionFile = m.leaf("reconstructionFile", existing.ReconstructionFile, d.ReconstructionFile)

	out.IncomeTaxReturns = models.IncomeTaxReturns{
		FY2024_25: m.leaf("incomeTaxReturns.fy2024_25", existing.IncomeTaxReturns.FY2024_25, d.IncomeTaxReturns.FY2024_25),
		FY2023_24: m.leaf("incomeTaxReturns.fy2023_24", existing.IncomeTaxReturns.FY2023_24, d.IncomeTaxReturns.FY2023_24),
		FY2022_23: m.leaf("incomeTaxReturns.fy2022_23", existing.IncomeTaxReturns.FY2022_23, d.IncomeTaxReturns.FY2022_23),
	}

	out.AnnualAccounts = m.annualAccounts(existing.AnnualAccounts, d.AnnualRows())

	prior := existing.GradingSelections()
	drafted := d.GradingSelections()
	for i, target := range out.GradingSelections() {
		*target.Selection = m.selection(target.Path, *prior[i].Selection, drafted[i].Selection)
	}

	policy.Annotate(out)
	return out
}

type merger struct {
	uploaded Uploaded
}

// leaf applies the three-way rule to one document slot.
func (m merger) leaf(path string, existing *string, f form.DocField) *string {
	if f.State == form.DocRemoved {
		return nil
	}
	if url, ok := m.uploaded[path]; ok && url != "" {
		return &url
	}
	return clone(existing)
}

func (m merger) annualAccounts(existing []models.AnnualAccount, drafted []form.IndexedRow) []models.AnnualAccount {
	prior := models.NormalizeAnnualAccounts(existing)
	out := make([]models.AnnualAccount, len(models.FiscalYears))

	for i, year := range models.FiscalYears {
		ex := prior[i]
		r := drafted[i]
		if r.Row == nil {
			out[i] = models.AnnualAccount{
				Year:          year,
				Revenue:       ex.Revenue,
				ProfitLoss:    ex.ProfitLoss,
				BalanceSheet:  clone(ex.BalanceSheet),
				ProfitLossDoc: clone(ex.ProfitLossDoc),
			}
			continue
		}

		row := models.AnnualAccount{
			Year:          year,
			Revenue:       ex.Revenue,
			ProfitLoss:    ex.ProfitLoss,
			BalanceSheet:  m.leaf(docref.AnnualLeaf(r.Index, "balanceSheet"), ex.BalanceSheet, r.Row.BalanceSheet),
			ProfitLossDoc: m.leaf(docref.AnnualLeaf(r.Index, "profitLossDoc"), ex.ProfitLossDoc, r.Row.ProfitLossDoc),
		}
		if r.Row.Revenue.Valid {
			row.Revenue = r.Row.Revenue.Value
		}
		if r.Row.ProfitLoss.Valid {
			row.ProfitLoss = r.Row.ProfitLoss.Value
		}
		out[i] = row
	}
	return out
}

func (m merger) selection(path string, existing models.GradingSelection, drafted *form.SelectionDraft) models.GradingSelection {
	leaf := docref.GradingLeaf(path)
	if drafted == nil {
		return models.GradingSelection{
			Value:    existing.Value,
			Label:    existing.Label,
			Document: m.leaf(leaf, existing.Document, form.DocField{}),
		}
	}
	return models.GradingSelection{
		Value:    strings.TrimSpace(drafted.Value),
		Label:    drafted.Label,
		Document: m.leaf(leaf, existing.Document, drafted.Document),
	}
}

func clone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
