package core

import (
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type (
	// PaymentReport is what an artist is owed for a period of selections.
	PaymentReport struct {
		ID            string
		ArtistID      int64
		MemberName    string
		MemberID      string
		MemberEmail   string
		Phone         string
		PeriodStart   time.Time
		PeriodEnd     time.Time
		TotalPlayed   int
		UnitPrice     Money
		GrossAmount   Money
		Deductions    Money
		NetAmount     Money
		BankName      string
		AccountNumber string
		BranchCode    string
		CreatedAt     time.Time
	}

	// Invoice bills a company for the works it used.
	Invoice struct {
		ID             string
		CompanyID      int64
		ClientEmail    string
		InvoiceDate    time.Time
		BillingCompany string
		BillingEmail   string
		ServiceType    string
		TotalUsed      int
		UnitPrice      Money
		TotalAmount    Money
		NetAmount      Money
		BankName       string
		AccountNumber  string
		CreatedAt      time.Time
	}

	// ValidationError lists every problem found in a submitted form.
	ValidationError struct {
		Problems []string
	}
)

func (e *ValidationError) Error() string {
	return "validation failed:\n- " + strings.Join(e.Problems, "\n- ")
}

func (e *ValidationError) add(cond bool, msg string) {
	if cond {
		e.Problems = append(e.Problems, msg)
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidEmail reports whether s looks like an e-mail address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ComputeAmounts fills gross and net amounts from the play count, unit price
// and deductions.
func (r *PaymentReport) ComputeAmounts() {
	r.GrossAmount = r.UnitPrice.Times(r.TotalPlayed)
	r.NetAmount = r.GrossAmount.Sub(r.Deductions)
}

func (r PaymentReport) Validate() error {
	v := &ValidationError{}
	v.add(blank(r.MemberName), "member name is required")
	v.add(blank(r.MemberID), "member id is required")
	v.add(blank(r.MemberEmail), "member email is required")
	v.add(!blank(r.MemberEmail) && !ValidEmail(r.MemberEmail), "member email is not valid")
	v.add(r.TotalPlayed < 0, "total played cannot be negative")
	v.add(r.UnitPrice.Cents < 0, "unit price cannot be negative")
	v.add(r.GrossAmount.Cents < 0, "gross amount cannot be negative")
	v.add(r.Deductions.Cents < 0, "deductions cannot be negative")
	v.add(r.NetAmount.Cents < 0, "net amount cannot be negative")
	v.add(blank(r.BankName), "bank name is required")
	v.add(blank(r.AccountNumber), "account number is required")
	v.add(!r.PeriodStart.IsZero() && !r.PeriodEnd.IsZero() && r.PeriodEnd.Before(r.PeriodStart),
		"period end is before period start")
	return v.orNil()
}

// ComputeAmounts fills the invoice total from usage and unit price. The net
// amount defaults to the total when unset.
func (i *Invoice) ComputeAmounts() {
	i.TotalAmount = i.UnitPrice.Times(i.TotalUsed)
	if i.NetAmount.Cents == 0 {
		i.NetAmount = i.TotalAmount
	}
}

func (i Invoice) Validate() error {
	v := &ValidationError{}
	v.add(blank(i.ClientEmail), "client email is required")
	v.add(!blank(i.ClientEmail) && !ValidEmail(i.ClientEmail), "client email is not valid")
	v.add(i.InvoiceDate.IsZero(), "invoice date is required")
	v.add(blank(i.BillingCompany), "billing company name is required")
	v.add(blank(i.BillingEmail), "billing company email is required")
	v.add(!blank(i.BillingEmail) && !ValidEmail(i.BillingEmail), "billing company email is not valid")
	v.add(blank(i.ServiceType), "service type is required")
	v.add(blank(i.BankName), "bank name is required")
	v.add(i.TotalUsed <= 0, "total used must be greater than zero")
	v.add(i.UnitPrice.Cents <= 0, "unit price must be greater than zero")
	v.add(i.TotalAmount.Cents <= 0, "total amount must be greater than zero")
	v.add(i.NetAmount.Cents < 0, "net amount cannot be negative")
	v.add(!validAccountNumber(i.AccountNumber), "account number must be a positive number")
	return v.orNil()
}

func validAccountNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	nonZero := false
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		if r != '0' {
			nonZero = true
		}
	}
	return nonZero
}
