package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Subscriber struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SubscribeOutcome says what Subscribe did with the address.
type SubscribeOutcome string

const (
	SubscribeCreated      SubscribeOutcome = "created"
	SubscribeResubscribed SubscribeOutcome = "resubscribed"
	SubscribeAlready      SubscribeOutcome = "already"
)

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

type SubscriberInput struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (in SubscriberInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return invalid("email is required")
	}
	return validateEmail(in.Email)
}

type SubscriberPatch struct {
	Name       *string `json:"name"`
	Subscribed *bool   `json:"subscribed"`
}

func (p SubscriberPatch) Validate() error { return nil }

func (p SubscriberPatch) Apply(s *Subscriber) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Subscribed != nil {
		s.Subscribed = *p.Subscribed
	}
}

type SubscriberRepo struct{ DB DB }

const subscriberColumns = `id, email, name, source, subscribed, created_at, updated_at`

func scanSubscriber(row pgx.Row) (Subscriber, error) {
	var s Subscriber
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Source, &s.Subscribed, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Subscribe is idempotent per email: an active subscriber is left alone, an
// unsubscribed one is flipped back, and only an unknown address inserts a row.
func (r *SubscriberRepo) Subscribe(ctx context.Context, in SubscriberInput) (Subscriber, SubscribeOutcome, error) {
	if err := in.Validate(); err != nil {
		return Subscriber{}, "", err
	}
	email := normalizeEmail(in.Email)

	existing, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Subscribed:
		return existing, SubscribeAlready, nil
	case err == nil:
		existing.Subscribed = true
		existing.UpdatedAt = now()
		if _, err := r.DB.Exec(ctx, `UPDATE subscribers SET subscribed=TRUE, updated_at=$2 WHERE id=$1`,
			existing.ID, existing.UpdatedAt); err != nil {
			return Subscriber{}, "", storeErr(err)
		}
		return existing, SubscribeResubscribed, nil
	case !errors.Is(err, ErrNotFound):
		return Subscriber{}, "", err
	}

	s, err := r.Create(ctx, SubscriberInput{Email: email, Name: in.Name, Source: in.Source})
	if errors.Is(err, ErrConflict) {
		// lost a race with a concurrent subscribe of the same address
		existing, gerr := r.GetByEmail(ctx, email)
		if gerr != nil {
			return Subscriber{}, "", gerr
		}
		return existing, SubscribeAlready, nil
	}
	if err != nil {
		return Subscriber{}, "", err
	}
	return s, SubscribeCreated, nil
}

// Unsubscribe clears the flag. Unknown addresses report ErrNotFound.
func (r *SubscriberRepo) Unsubscribe(ctx context.Context, email string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE subscribers SET subscribed=FALSE, updated_at=$2 WHERE email=$1`,
		normalizeEmail(email), now())
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}

func (r *SubscriberRepo) GetByEmail(ctx context.Context, email string) (Subscriber, error) {
	s, err := scanSubscriber(r.DB.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE email=$1`,
		normalizeEmail(email)))
	return s, storeErr(err)
}

func (r *SubscriberRepo) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubscriber)
}

func (r *SubscriberRepo) Get(ctx context.Context, id string) (Subscriber, error) {
	s, err := scanSubscriber(r.DB.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id=$1`, id))
	return s, storeErr(err)
}

func (r *SubscriberRepo) Create(ctx context.Context, in SubscriberInput) (Subscriber, error) {
	if err := in.Validate(); err != nil {
		return Subscriber{}, err
	}
	ts := now()
	s := Subscriber{
		ID:         uuid.NewString(),
		Email:      normalizeEmail(in.Email),
		Name:       strings.TrimSpace(in.Name),
		Source:     strings.TrimSpace(in.Source),
		Subscribed: true,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if s.Source == "" {
		s.Source = "website"
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO subscribers(`+subscriberColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.Email, s.Name, s.Source, s.Subscribed, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return Subscriber{}, storeErr(err)
	}
	return s, nil
}

func (r *SubscriberRepo) Update(ctx context.Context, id string, p SubscriberPatch) (Subscriber, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return Subscriber{}, err
	}
	p.Apply(&s)
	s.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE subscribers SET name=$2, subscribed=$3, updated_at=$4 WHERE id=$1`,
		s.ID, s.Name, s.Subscribed, s.UpdatedAt)
	if err != nil {
		return Subscriber{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Subscriber{}, err
	}
	return s, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM subscribers WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
