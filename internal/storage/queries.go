package storage

import (
	"context"
	"database/sql"
	"time"

	"royalties/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL of the repository. It runs against a *sql.DB or a
// transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n > 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// insertOrUpsert inserts with an explicit id when it comes from upstream and
// lets SQLite assign one otherwise.
func (q *Queries) insertOrUpsert(ctx context.Context, id int64, withID, withoutID string, args ...any) (int64, error) {
	if id > 0 {
		if _, err := q.db.ExecContext(ctx, withID, append([]any{id}, args...)...); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.db.ExecContext(ctx, withoutID, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const upsertUser = `INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END,
    email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END,
    role = CASE WHEN excluded.role <> '' THEN excluded.role ELSE users.role END`

const insertUser = `INSERT INTO users (name, email, role) VALUES (?, ?, ?)`

func (q *Queries) UpsertUser(ctx context.Context, u core.User) (int64, error) {
	return q.insertOrUpsert(ctx, u.ID, upsertUser, insertUser, u.Name, u.Email, string(u.Role))
}

const listUsers = `SELECT id, name, email, role FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		var u core.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role); err != nil {
			return nil, err
		}
		u.Role = core.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

const getUser = `SELECT id, name, email, role FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	var role string
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Name, &u.Email, &role)
	u.Role = core.Role(role)
	return u, err
}

const upsertCompany = `INSERT INTO companies (id, company_name, email) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET company_name = excluded.company_name, email = excluded.email`

const insertCompany = `INSERT INTO companies (company_name, email) VALUES (?, ?)`

func (q *Queries) UpsertCompany(ctx context.Context, c core.Company) (int64, error) {
	return q.insertOrUpsert(ctx, c.ID, upsertCompany, insertCompany, c.CompanyName, c.Email)
}

const upsertTrack = `INSERT INTO tracks
    (id, title, artist, file_url, file_type, upload_type, status_id, status_name, user_id, uploaded_date, duration, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title, artist = excluded.artist, file_url = excluded.file_url,
    file_type = excluded.file_type, upload_type = excluded.upload_type,
    status_id = excluded.status_id, status_name = excluded.status_name,
    user_id = excluded.user_id, uploaded_date = excluded.uploaded_date,
    duration = excluded.duration, notes = excluded.notes`

const insertTrack = `INSERT INTO tracks
    (title, artist, file_url, file_type, upload_type, status_id, status_name, user_id, uploaded_date, duration, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) UpsertTrack(ctx context.Context, t core.Track) (int64, error) {
	var statusID sql.NullInt64
	var statusName sql.NullString
	if t.Status != nil {
		statusID = nullInt(t.Status.ID)
		statusName = sql.NullString{String: t.Status.StatusName, Valid: true}
	}
	return q.insertOrUpsert(ctx, t.ID, upsertTrack, insertTrack,
		t.Title, t.Artist, t.FileURL, t.FileType, t.UploadType,
		statusID, statusName, nullInt(t.OwnerID()),
		formatTime(t.UploadedDate), t.Duration, t.Notes)
}

const selectTracks = `SELECT t.id, t.title, t.artist, t.file_url, t.file_type, t.upload_type,
    t.status_id, t.status_name, t.uploaded_date, t.duration, t.notes,
    u.id, u.name, u.email, u.role
FROM tracks t LEFT JOIN users u ON u.id = t.user_id`

const listTracks = selectTracks + `
WHERE (?1 = 0 OR t.user_id = ?1)
  AND (?2 = '' OR UPPER(COALESCE(NULLIF(t.status_name, ''), 'PENDING')) = ?2)
ORDER BY t.id`

const getTrack = selectTracks + ` WHERE t.id = ?`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(s scanner) (core.Track, error) {
	var (
		t                     core.Track
		statusID              sql.NullInt64
		statusName            sql.NullString
		uploaded              string
		userID                sql.NullInt64
		userName, email, role sql.NullString
	)
	err := s.Scan(&t.ID, &t.Title, &t.Artist, &t.FileURL, &t.FileType, &t.UploadType,
		&statusID, &statusName, &uploaded, &t.Duration, &t.Notes,
		&userID, &userName, &email, &role)
	if err != nil {
		return core.Track{}, err
	}
	if statusName.Valid {
		t.Status = &core.Status{ID: statusID.Int64, StatusName: statusName.String}
	}
	if userID.Valid {
		t.User = &core.User{ID: userID.Int64, Name: userName.String, Email: email.String, Role: core.Role(role.String)}
	}
	t.UploadedDate = parseTime(uploaded)
	return t, nil
}

func (q *Queries) ListTracks(ctx context.Context, userID int64, status string) ([]core.Track, error) {
	rows, err := q.db.QueryContext(ctx, listTracks, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) GetTrack(ctx context.Context, id int64) (core.Track, error) {
	return scanTrack(q.db.QueryRowContext(ctx, getTrack, id))
}

const updateTrackStatus = `UPDATE tracks SET status_name = ? WHERE id = ?`

func (q *Queries) UpdateTrackStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx, updateTrackStatus, status, id)
	return err
}

const upsertLogSheet = `INSERT INTO log_sheets (id, title, created_date, company_id, company_name, company_email)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title = excluded.title, created_date = excluded.created_date,
    company_id = excluded.company_id, company_name = excluded.company_name, company_email = excluded.company_email`

const insertLogSheet = `INSERT INTO log_sheets (title, created_date, company_id, company_name, company_email)
VALUES (?, ?, ?, ?, ?)`

const deleteSelections = `DELETE FROM selections WHERE log_sheet_id = ?`

const insertSelection = `INSERT INTO selections
    (log_sheet_id, position, track_id, title, artist, file_url, file_type, user_id, user_name, user_email)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertLogSheet writes the sheet and replaces its selections.
func (q *Queries) UpsertLogSheet(ctx context.Context, l core.LogSheet) (int64, error) {
	var companyID sql.NullInt64
	var companyName, companyEmail sql.NullString
	if l.Company != nil {
		companyID = nullInt(l.Company.ID)
		companyName = sql.NullString{String: l.Company.CompanyName, Valid: true}
		companyEmail = nullString(l.Company.Email)
	}
	id, err := q.insertOrUpsert(ctx, l.ID, upsertLogSheet, insertLogSheet,
		l.Title, formatTime(l.CreatedDate), companyID, companyName, companyEmail)
	if err != nil {
		return 0, err
	}
	if _, err := q.db.ExecContext(ctx, deleteSelections, id); err != nil {
		return 0, err
	}
	for i, s := range l.SelectedMusic {
		var userID sql.NullInt64
		var userName, userEmail sql.NullString
		if s.User != nil {
			userID = nullInt(s.User.ID)
			userName = nullString(s.User.Name)
			userEmail = nullString(s.User.Email)
		}
		if _, err := q.db.ExecContext(ctx, insertSelection, id, i, nullInt(s.TrackID),
			s.Title, s.Artist, s.FileURL, s.FileType, userID, userName, userEmail); err != nil {
			return 0, err
		}
	}
	return id, nil
}

const listLogSheets = `SELECT id, title, created_date, company_id, company_name, company_email
FROM log_sheets ORDER BY created_date, id`

const listSelections = `SELECT log_sheet_id, track_id, title, artist, file_url, file_type, user_id, user_name, user_email
FROM selections ORDER BY log_sheet_id, position`

func (q *Queries) ListLogSheets(ctx context.Context) ([]core.LogSheet, error) {
	rows, err := q.db.QueryContext(ctx, listLogSheets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []core.LogSheet
	index := make(map[int64]int)
	for rows.Next() {
		var (
			l           core.LogSheet
			created     string
			companyID   sql.NullInt64
			name, email sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Title, &created, &companyID, &name, &email); err != nil {
			return nil, err
		}
		l.CreatedDate = parseTime(created)
		if name.Valid || companyID.Valid {
			l.Company = &core.Company{ID: companyID.Int64, CompanyName: name.String, Email: email.String}
		}
		index[l.ID] = len(sheets)
		sheets = append(sheets, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := q.db.QueryContext(ctx, listSelections)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var (
			sheetID         int64
			s               core.Selection
			trackID, userID sql.NullInt64
			userName, email sql.NullString
		)
		if err := srows.Scan(&sheetID, &trackID, &s.Title, &s.Artist, &s.FileURL, &s.FileType, &userID, &userName, &email); err != nil {
			return nil, err
		}
		s.TrackID = trackID.Int64
		if userID.Valid || userName.Valid || email.Valid {
			s.User = &core.User{ID: userID.Int64, Name: userName.String, Email: email.String}
		}
		if i, ok := index[sheetID]; ok {
			sheets[i].SelectedMusic = append(sheets[i].SelectedMusic, s)
		}
	}
	return sheets, srows.Err()
}

const insertPaymentReport = `INSERT INTO payment_reports
    (id, artist_id, member_name, member_id, member_email, phone, period_start, period_end,
     total_played, unit_price_cents, gross_cents, deductions_cents, net_cents,
     bank_name, account_number, branch_code, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertPaymentReport(ctx context.Context, r core.PaymentReport) error {
	_, err := q.db.ExecContext(ctx, insertPaymentReport,
		r.ID, r.ArtistID, r.MemberName, r.MemberID, r.MemberEmail, r.Phone,
		formatTime(r.PeriodStart), formatTime(r.PeriodEnd),
		r.TotalPlayed, r.UnitPrice.Cents, r.GrossAmount.Cents, r.Deductions.Cents, r.NetAmount.Cents,
		r.BankName, r.AccountNumber, r.BranchCode, formatTime(r.CreatedAt))
	return err
}

const listPaymentReports = `SELECT id, artist_id, member_name, member_id, member_email, phone, period_start, period_end,
    total_played, unit_price_cents, gross_cents, deductions_cents, net_cents,
    bank_name, account_number, branch_code, created_at
FROM payment_reports WHERE (?1 = 0 OR artist_id = ?1) ORDER BY created_at, id`

func (q *Queries) ListPaymentReports(ctx context.Context, artistID int64) ([]core.PaymentReport, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentReports, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.PaymentReport
	for rows.Next() {
		var r core.PaymentReport
		var start, end, created string
		if err := rows.Scan(&r.ID, &r.ArtistID, &r.MemberName, &r.MemberID, &r.MemberEmail, &r.Phone,
			&start, &end, &r.TotalPlayed, &r.UnitPrice.Cents, &r.GrossAmount.Cents, &r.Deductions.Cents,
			&r.NetAmount.Cents, &r.BankName, &r.AccountNumber, &r.BranchCode, &created); err != nil {
			return nil, err
		}
		r.PeriodStart, r.PeriodEnd, r.CreatedAt = parseTime(start), parseTime(end), parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertInvoice = `INSERT INTO invoices
    (id, company_id, client_email, invoice_date, billing_company, billing_email, service_type,
     total_used, unit_price_cents, total_cents, net_cents, bank_name, account_number, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertInvoice(ctx context.Context, inv core.Invoice) error {
	_, err := q.db.ExecContext(ctx, insertInvoice,
		inv.ID, inv.CompanyID, inv.ClientEmail, formatTime(inv.InvoiceDate), inv.BillingCompany,
		inv.BillingEmail, inv.ServiceType, inv.TotalUsed, inv.UnitPrice.Cents, inv.TotalAmount.Cents,
		inv.NetAmount.Cents, inv.BankName, inv.AccountNumber, formatTime(inv.CreatedAt))
	return err
}

const listInvoices = `SELECT id, company_id, client_email, invoice_date, billing_company, billing_email, service_type,
    total_used, unit_price_cents, total_cents, net_cents, bank_name, account_number, created_at
FROM invoices ORDER BY created_at, id`

func (q *Queries) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := q.db.QueryContext(ctx, listInvoices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		var date, created string
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.ClientEmail, &date, &inv.BillingCompany,
			&inv.BillingEmail, &inv.ServiceType, &inv.TotalUsed, &inv.UnitPrice.Cents, &inv.TotalAmount.Cents,
			&inv.NetAmount.Cents, &inv.BankName, &inv.AccountNumber, &created); err != nil {
			return nil, err
		}
		inv.InvoiceDate, inv.CreatedAt = parseTime(date), parseTime(created)
		out = append(out, inv)
	}
	return out, rows.Err()
}
