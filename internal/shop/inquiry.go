package shop

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var inquiryTypes = map[string]bool{
	"general": true, "wedding": true, "corporate": true, "event": true, "sympathy": true, "custom": true,
}

var inquiryStatuses = map[string]bool{"new": true, "contacted": true, "closed": true}

// InquiryStatuses lists the inquiry workflow states in order.
func InquiryStatuses() []string { return []string{"new", "contacted", "closed"} }

type Inquiry struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Type       string     `json:"type"`
	EventDate  *time.Time `json:"eventDate"`
	Budget     string     `json:"budget"`
	Guests     *int       `json:"guests"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	AdminNotes string     `json:"adminNotes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type InquiryInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	EventDate string `json:"eventDate"`
	Budget    string `json:"budget"`
	Guests    *int   `json:"guests"`
	Message   string `json:"message"`
}

func (in InquiryInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("name is required")
	case strings.TrimSpace(in.Email) == "":
		return invalid("email is required")
	case strings.TrimSpace(in.Message) == "":
		return invalid("message is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Type != "" && !inquiryTypes[in.Type] {
		return invalid("unknown inquiry type %q", in.Type)
	}
	if in.Guests != nil && *in.Guests < 0 {
		return invalid("guests cannot be negative")
	}
	if _, err := parseDate(in.EventDate); err != nil {
		return err
	}
	return nil
}

// InquiryPatch is what an admin may change after intake.
type InquiryPatch struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func (p InquiryPatch) Validate() error {
	if p.Status != nil && !inquiryStatuses[*p.Status] {
		return invalid("status must be one of new, contacted, closed")
	}
	return nil
}

func (p InquiryPatch) Apply(i *Inquiry) {
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.AdminNotes != nil {
		i.AdminNotes = *p.AdminNotes
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return invalid("email is not valid")
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid("date %q must be YYYY-MM-DD", s)
}

type InquiryRepo struct{ DB DB }

const inquiryColumns = `id, name, email, phone, type, event_date, budget, guests, message, status, admin_notes, created_at, updated_at`

func scanInquiry(row pgx.Row) (Inquiry, error) {
	var i Inquiry
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.Phone, &i.Type, &i.EventDate, &i.Budget, &i.Guests,
		&i.Message, &i.Status, &i.AdminNotes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (r *InquiryRepo) List(ctx context.Context) ([]Inquiry, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInquiry)
}

func (r *InquiryRepo) Get(ctx context.Context, id string) (Inquiry, error) {
	i, err := scanInquiry(r.DB.QueryRow(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id=$1`, id))
	return i, storeErr(err)
}

func (r *InquiryRepo) Create(ctx context.Context, in InquiryInput) (Inquiry, error) {
	if err := in.Validate(); err != nil {
		return Inquiry{}, err
	}
	eventDate, _ := parseDate(in.EventDate)
	ts := now()
	i := Inquiry{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Type:      in.Type,
		EventDate: eventDate,
		Budget:    in.Budget,
		Guests:    in.Guests,
		Message:   strings.TrimSpace(in.Message),
		Status:    "new",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if i.Type == "" {
		i.Type = "general"
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO inquiries(`+inquiryColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		i.ID, i.Name, i.Email, i.Phone, i.Type, i.EventDate, i.Budget, i.Guests, i.Message,
		i.Status, i.AdminNotes, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return Inquiry{}, storeErr(err)
	}
	return i, nil
}

func (r *InquiryRepo) Update(ctx context.Context, id string, p InquiryPatch) (Inquiry, error) {
	if err := p.Validate(); err != nil {
		return Inquiry{}, err
	}
	i, err := r.Get(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}
	p.Apply(&i)
	i.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE inquiries SET status=$2, admin_notes=$3, updated_at=$4 WHERE id=$1`,
		i.ID, i.Status, i.AdminNotes, i.UpdatedAt)
	if err != nil {
		return Inquiry{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Inquiry{}, err
	}
	return i, nil
}

func (r *InquiryRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM inquiries WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
