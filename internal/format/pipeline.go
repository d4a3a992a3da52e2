package format

import (
	"io"
	"strconv"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/payments"
)

// FormatPayments writes the payments of a deal as a table. Amounts without
// a currency use defaultCurrency.
func FormatPayments(w io.Writer, pays []domain.Payment, defaultCurrency string) error {
	return renderTable(w, []column[domain.Payment]{
		{Name: "PAYMENT", Value: func(p domain.Payment) string { return p.ID }},
		{Name: "AMOUNT", Right: true, Value: func(p domain.Payment) string {
			cur := p.Currency
			if cur == "" {
				cur = defaultCurrency
			}
			return payments.FormatAmount(p.Amount, cur)
		}},
		{Name: "STATUS", Value: func(p domain.Payment) string { return p.Status }},
		{Name: "DUE", Value: func(p domain.Payment) string {
			if p.DueDate == "" {
				return ""
			}
			return payments.FormatDate(p.DueDate)
		}},
	}, pays)
}

// FormatStageMetrics writes the per stage aggregate as a table.
func FormatStageMetrics(w io.Writer, metrics []domain.StageMetric, currency string) error {
	return renderTable(w, []column[domain.StageMetric]{
		{Name: "STAGE", Value: func(m domain.StageMetric) string { return m.Stage.String() }},
		{Name: "DEALS", Right: true, Value: func(m domain.StageMetric) string { return strconv.Itoa(m.Count) }},
		{Name: "VALUE", Right: true, Value: func(m domain.StageMetric) string { return payments.FormatAmount(m.TotalValue, currency) }},
	}, metrics)
}
