package payments

import (
	"testing"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func TestKindOf(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"payment.created", KindCreated},
		{"payments.payment.created", KindCreated},
		{"payment.status_changed", KindStatusChanged},
		{"payment.status.changed", KindStatusChanged},
		{"payments.payment.status_changed", KindStatusChanged},
		{"PAYMENT.OVERDUE", KindOverdue},
		{"payments.payment.overdue", KindOverdue},
		{"payment.refunded", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.tag))
		})
	}
}

func TestDescribeOverdue(t *testing.T) {
	msg, severity, ok := Describe(domain.PaymentEvent{
		Type:     "payments.payment.overdue",
		Amount:   amount(1000),
		Currency: "RUB",
		DueDate:  "2024-01-01",
	}, "RUB")

	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, severity)
	assert.Contains(t, msg, "RUB")
	assert.Contains(t, msg, "000")
	assert.Contains(t, msg, "01.01.2024")
	assert.Contains(t, msg, "overdue")
}

func TestDescribeOmitsMissingClauses(t *testing.T) {
	tests := []struct {
		name    string
		evt     domain.PaymentEvent
		want    string
		missing []string
	}{
		{
			name: "created without fields",
			evt:  domain.PaymentEvent{Type: "payment.created"},
			want: "New payment",
		},
		{
			name:    "created with due date only",
			evt:     domain.PaymentEvent{Type: "payment.created", DueDate: "2024-03-15"},
			want:    "New payment due 15.03.2024",
			missing: []string{" of "},
		},
		{
			name: "overdue without fields",
			evt:  domain.PaymentEvent{Type: "payment.overdue"},
			want: "Payment is overdue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, _, ok := Describe(tt.evt, "RUB")
			require.True(t, ok)
			assert.Equal(t, tt.want, msg)
			assert.NotContains(t, msg, "undefined")
			assert.NotContains(t, msg, "<nil>")
			for _, m := range tt.missing {
				assert.NotContains(t, msg, m)
			}
		})
	}
}

func TestDescribeUsesDefaultCurrency(t *testing.T) {
	msg, severity, ok := Describe(domain.PaymentEvent{Type: "payment.created", Amount: amount(250)}, "EUR")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityInfo, severity)
	assert.Contains(t, msg, "EUR")
}

func TestDescribeStatusChanged(t *testing.T) {
	tests := []struct {
		status   string
		severity domain.Severity
		contains string
	}{
		{"received", domain.SeveritySuccess, "Payment received"},
		{"paid_out", domain.SeveritySuccess, "Payment paid out"},
		{"Paid-Out", domain.SeveritySuccess, "Payment paid out"},
		{"cancelled", domain.SeverityError, "Payment cancelled"},
		{"planned", domain.SeverityInfo, "Payment planned"},
		{"expected", domain.SeverityInfo, "Payment expected"},
		{"on_hold", domain.SeverityInfo, `unknown status "on_hold"`},
		{"", domain.SeverityInfo, "Payment status changed"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			msg, severity, ok := Describe(domain.PaymentEvent{Type: "payment.status_changed", Status: tt.status}, "RUB")
			require.True(t, ok)
			assert.Equal(t, tt.severity, severity)
			assert.Contains(t, msg, tt.contains)
		})
	}
}

func TestDescribePrefersEventMessage(t *testing.T) {
	msg, severity, ok := Describe(domain.PaymentEvent{
		Type:    "payment.status.changed",
		Status:  "received",
		Message: "  Оплата получена  ",
	}, "RUB")
	require.True(t, ok)
	assert.Equal(t, "Оплата получена", msg)
	assert.Equal(t, domain.SeveritySuccess, severity)
}

func TestDescribeUnknownType(t *testing.T) {
	_, _, ok := Describe(domain.PaymentEvent{Type: "payment.refunded", Message: "Возврат выполнен"}, "RUB")
	assert.False(t, ok)
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount(1000, "rub"), "RUB")

	unknown := FormatAmount(12.5, "XYZ1")
	assert.Contains(t, unknown, "XYZ1")
	assert.Contains(t, unknown, "12")

	assert.NotContains(t, FormatAmount(3, ""), " ")
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01.01.2024", FormatDate("2024-01-01"))
	assert.Equal(t, "05.02.2024", FormatDate("2024-02-05T10:00:00Z"))
	assert.Equal(t, "next week", FormatDate(" next week "))
	assert.Equal(t, "", FormatDate(""))
}
