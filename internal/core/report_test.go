package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validPayment() PaymentReport {
	r := PaymentReport{
		MemberName:    "Ndapewa Shilongo",
		MemberID:      "M-001",
		MemberEmail:   "ndapewa@example.na",
		TotalPlayed:   12,
		UnitPrice:     Money{Cents: 250},
		BankName:      "Bank Windhoek",
		AccountNumber: "8012345678",
	}
	r.ComputeAmounts()
	return r
}

func TestPaymentReportValidate(t *testing.T) {
	r := validPayment()
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if r.GrossAmount.Cents != 3000 || r.NetAmount.Cents != 3000 {
		t.Fatalf("amounts = %v/%v, want 3000/3000", r.GrossAmount, r.NetAmount)
	}

	mutations := map[string]func(*PaymentReport){
		"member name":  func(r *PaymentReport) { r.MemberName = " " },
		"member id":    func(r *PaymentReport) { r.MemberID = "" },
		"email format": func(r *PaymentReport) { r.MemberEmail = "not-an-email" },
		"bank":         func(r *PaymentReport) { r.BankName = "" },
		"account":      func(r *PaymentReport) { r.AccountNumber = "" },
		"negative net": func(r *PaymentReport) { r.Deductions = Money{Cents: 5000}; r.ComputeAmounts() },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := validPayment()
			mutate(&r)
			err := r.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestInvoiceValidate(t *testing.T) {
	inv := Invoice{
		ClientEmail:    "radio@example.na",
		InvoiceDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BillingCompany: "NAMSA",
		BillingEmail:   "billing@namsa.na",
		ServiceType:    "Broadcast licence",
		TotalUsed:      40,
		UnitPrice:      Money{Cents: 100},
		BankName:       "FNB",
		AccountNumber:  "62001234",
	}
	inv.ComputeAmounts()
	if err := inv.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if inv.NetAmount != inv.TotalAmount {
		t.Fatalf("net amount should default to total")
	}

	inv.TotalUsed = 0
	inv.AccountNumber = "000"
	inv.ComputeAmounts()
	err := inv.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"total used", "total amount", "account number"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
