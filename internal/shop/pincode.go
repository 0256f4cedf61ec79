package shop

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var postalCode = regexp.MustCompile(`^[0-9A-Z][0-9A-Z -]{1,8}[0-9A-Z]$`)

// Pincode is a postal code the shop delivers to.
type Pincode struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	City        string          `json:"city"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NormalizePostal trims and upper-cases a postal code the way it is stored.
func NormalizePostal(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

func validatePostal(code string) error {
	if !postalCode.MatchString(NormalizePostal(code)) {
		return invalid("code %q is not a valid postal code", code)
	}
	return nil
}

type PincodeInput struct {
	Code        string           `json:"code"`
	City        string           `json:"city"`
	DeliveryFee *decimal.Decimal `json:"deliveryFee"`
	IsActive    *bool            `json:"isActive"`
}

func (in PincodeInput) Validate() error {
	if err := validatePostal(in.Code); err != nil {
		return err
	}
	if strings.TrimSpace(in.City) == "" {
		return invalid("city is required")
	}
	if in.DeliveryFee != nil && in.DeliveryFee.IsNegative() {
		return invalid("deliveryFee cannot be negative")
	}
	return nil
}

type PincodePatch struct {
	Code        *string          `json:"code"`
	City        *string          `json:"city"`
	DeliveryFee *decimal.Decimal `json:"deliveryFee"`
	IsActive    *bool            `json:"isActive"`
}

func (p PincodePatch) Validate() error {
	if p.Code != nil {
		if err := validatePostal(*p.Code); err != nil {
			return err
		}
	}
	if p.City != nil && strings.TrimSpace(*p.City) == "" {
		return invalid("city cannot be empty")
	}
	if p.DeliveryFee != nil && p.DeliveryFee.IsNegative() {
		return invalid("deliveryFee cannot be negative")
	}
	return nil
}

func (p PincodePatch) Apply(pc *Pincode) {
	if p.Code != nil {
		pc.Code = NormalizePostal(*p.Code)
	}
	if p.City != nil {
		pc.City = strings.TrimSpace(*p.City)
	}
	if p.DeliveryFee != nil {
		pc.DeliveryFee = *p.DeliveryFee
	}
	if p.IsActive != nil {
		pc.IsActive = *p.IsActive
	}
}

type PincodeRepo struct{ DB DB }

const pincodeColumns = `id, code, city, delivery_fee, is_active, created_at, updated_at`

func scanPincode(row pgx.Row) (Pincode, error) {
	var p Pincode
	err := row.Scan(&p.ID, &p.Code, &p.City, &p.DeliveryFee, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PincodeRepo) List(ctx context.Context) ([]Pincode, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+pincodeColumns+` FROM pincodes ORDER BY is_active DESC, city ASC, code ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPincode)
}

func (r *PincodeRepo) Get(ctx context.Context, id string) (Pincode, error) {
	p, err := scanPincode(r.DB.QueryRow(ctx, `SELECT `+pincodeColumns+` FROM pincodes WHERE id=$1`, id))
	return p, storeErr(err)
}

// Lookup finds an active delivery area by postal code.
func (r *PincodeRepo) Lookup(ctx context.Context, code string) (Pincode, error) {
	p, err := scanPincode(r.DB.QueryRow(ctx, `SELECT `+pincodeColumns+` FROM pincodes WHERE code=$1 AND is_active`,
		NormalizePostal(code)))
	return p, storeErr(err)
}

func (r *PincodeRepo) Create(ctx context.Context, in PincodeInput) (Pincode, error) {
	if err := in.Validate(); err != nil {
		return Pincode{}, err
	}
	ts := now()
	p := Pincode{
		ID:          uuid.NewString(),
		Code:        NormalizePostal(in.Code),
		City:        strings.TrimSpace(in.City),
		DeliveryFee: orDefault(in.DeliveryFee, decimal.Zero),
		IsActive:    orDefault(in.IsActive, true),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO pincodes(`+pincodeColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Code, p.City, p.DeliveryFee, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Pincode{}, storeErr(err)
	}
	return p, nil
}

func (r *PincodeRepo) Update(ctx context.Context, id string, patch PincodePatch) (Pincode, error) {
	if err := patch.Validate(); err != nil {
		return Pincode{}, err
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return Pincode{}, err
	}
	patch.Apply(&p)
	p.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE pincodes SET code=$2, city=$3, delivery_fee=$4, is_active=$5, updated_at=$6 WHERE id=$1`,
		p.ID, p.Code, p.City, p.DeliveryFee, p.IsActive, p.UpdatedAt)
	if err != nil {
		return Pincode{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Pincode{}, err
	}
	return p, nil
}

func (r *PincodeRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM pincodes WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
