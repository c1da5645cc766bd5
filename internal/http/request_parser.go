// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// table view state from query strings, path ids, and report forms submitted
// either form-encoded (HTMX) or as JSON.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"royalties/internal/core"
	"royalties/internal/table"
)

const dateLayout = "2006-01-02"

// maxBodyBytes bounds report submissions.
const maxBodyBytes = 64 << 10

// TableParams is the per-request view state of a table partial.
type TableParams struct {
	State    table.State
	Viewport table.Viewport
}

// ParseTableParams reads q, sort, dir, page and viewport from the query.
// Unknown directions fall back to ascending and pages below 1 to the first
// page; the engine clamps pages past the end.
func ParseTableParams(query url.Values) TableParams {
	state := table.State{
		Search: stripControl(query.Get("q")),
		Page:   1,
	}

	if key := strings.TrimSpace(query.Get("sort")); key != "" {
		state.SortKey = key
		state.SortDir = table.Asc
		if strings.EqualFold(query.Get("dir"), string(table.Desc)) {
			state.SortDir = table.Desc
		}
	}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			state.Page = p
		}
	}

	vp := query.Get("viewport")
	if vp == "" {
		vp = query.Get("width")
	}
	return TableParams{State: state, Viewport: table.ParseViewport(vp)}
}

// ParsePathID reads a positive integer path parameter.
func ParsePathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    *fastjson.Value
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		var parser fastjson.Parser
		v, err := parser.Parse(body)
		if err != nil {
			p.err = err
			return err
		}
		if v.Type() != fastjson.TypeObject {
			p.err = errors.New("JSON body must be an object")
			return p.err
		}
		p.jsonData = v
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData.Get(key)))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// WantsJSON reports whether the client speaks JSON, even when its body
// failed to parse.
func (p *RequestBodyParser) WantsJSON() bool {
	return p.jsonData != nil || strings.Contains(p.contentType, "json")
}

// Err is the read or parse error, if any.
func (p *RequestBodyParser) Err() error {
	return p.err
}

func stringValue(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return strconv.FormatFloat(v.GetFloat64(), 'f', -1, 64)
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	default:
		return ""
	}
}

// formReader collects field parse problems so a form reports all of them.
type formReader struct {
	p        *RequestBodyParser
	problems []string
}

func (f *formReader) text(key string) string {
	return f.p.Get(key)
}

func (f *formReader) id(key string) int64 {
	v := f.p.Get(key)
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		f.problems = append(f.problems, key+" must be a positive number")
		return 0
	}
	return id
}

func (f *formReader) count(key string) int {
	v := f.p.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.problems = append(f.problems, key+" must be a whole number")
		return 0
	}
	return n
}

// money treats an empty field as zero.
func (f *formReader) money(key string) core.Money {
	v := f.p.Get(key)
	if v == "" {
		return core.Money{}
	}
	m, err := core.ParseMoney(v)
	if err != nil {
		f.problems = append(f.problems, key+" is not a valid amount")
		return core.Money{}
	}
	return m
}

func (f *formReader) date(key string) time.Time {
	v := f.p.Get(key)
	if v == "" {
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		f.problems = append(f.problems, key+" must be a date (YYYY-MM-DD)")
		return time.Time{}
	}
	return d
}

func (f *formReader) err() error {
	if len(f.problems) == 0 {
		return nil
	}
	return &core.ValidationError{Problems: f.problems}
}

// ParsePaymentReport reads a payment report submission. Amounts and counts
// the server computes are not read.
func ParsePaymentReport(p *RequestBodyParser) (core.PaymentReport, error) {
	if err := p.Parse(); err != nil {
		return core.PaymentReport{}, err
	}
	f := &formReader{p: p}
	r := core.PaymentReport{
		ArtistID:      f.id("artist_id"),
		MemberName:    f.text("member_name"),
		MemberID:      f.text("member_id"),
		MemberEmail:   f.text("member_email"),
		Phone:         f.text("phone"),
		PeriodStart:   f.date("period_start"),
		PeriodEnd:     f.date("period_end"),
		UnitPrice:     f.money("unit_price"),
		Deductions:    f.money("deductions"),
		BankName:      f.text("bank_name"),
		AccountNumber: f.text("account_number"),
		BranchCode:    f.text("branch_code"),
	}
	return r, f.err()
}

// ParseInvoice reads a company invoice submission. total_used may be left
// empty to count the company's selections.
func ParseInvoice(p *RequestBodyParser) (core.Invoice, error) {
	if err := p.Parse(); err != nil {
		return core.Invoice{}, err
	}
	f := &formReader{p: p}
	inv := core.Invoice{
		CompanyID:      f.id("company_id"),
		ClientEmail:    f.text("client_email"),
		InvoiceDate:    f.date("invoice_date"),
		BillingCompany: f.text("billing_company"),
		BillingEmail:   f.text("billing_email"),
		ServiceType:    f.text("service_type"),
		TotalUsed:      f.count("total_used"),
		UnitPrice:      f.money("unit_price"),
		NetAmount:      f.money("net_amount"),
		BankName:       f.text("bank_name"),
		AccountNumber:  f.text("account_number"),
	}
	return inv, f.err()
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
