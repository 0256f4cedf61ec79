package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	Description   string           `json:"description"`
	DiscountType  DiscountType     `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	MinOrderValue decimal.Decimal  `json:"minOrderValue"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	ValidFrom     *time.Time       `json:"validFrom"`
	ValidUntil    *time.Time       `json:"validUntil"`
	UsageLimit    *int             `json:"usageLimit"`
	UsedCount     int              `json:"usedCount"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Discount returns the amount the coupon takes off subtotal at the given time,
// or a validation error explaining why it does not apply.
func (c Coupon) Discount(subtotal decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	switch {
	case !c.IsActive:
		return decimal.Zero, invalid("coupon %s is not active", c.Code)
	case c.ValidFrom != nil && at.Before(*c.ValidFrom):
		return decimal.Zero, invalid("coupon %s is not valid yet", c.Code)
	case c.ValidUntil != nil && at.After(*c.ValidUntil):
		return decimal.Zero, invalid("coupon %s has expired", c.Code)
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return decimal.Zero, invalid("coupon %s has been fully redeemed", c.Code)
	case subtotal.LessThan(c.MinOrderValue):
		return decimal.Zero, invalid("coupon %s needs a minimum order of %s", c.Code, c.MinOrderValue.StringFixed(2))
	}

	var d decimal.Decimal
	if c.DiscountType == DiscountPercentage {
		d = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	} else {
		d = c.DiscountValue
	}
	if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
		d = *c.MaxDiscount
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d, nil
}

func normalizeCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

type CouponInput struct {
	Code          string           `json:"code"`
	Description   string           `json:"description"`
	DiscountType  DiscountType     `json:"discountType"`
	DiscountValue *decimal.Decimal `json:"discountValue"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	ValidFrom     *time.Time       `json:"validFrom"`
	ValidUntil    *time.Time       `json:"validUntil"`
	UsageLimit    *int             `json:"usageLimit"`
	IsActive      *bool            `json:"isActive"`
}

func (in CouponInput) Validate() error {
	code := normalizeCode(in.Code)
	if code == "" {
		return invalid("code is required")
	}
	if strings.ContainsAny(code, " \t") {
		return invalid("code cannot contain spaces")
	}
	if in.DiscountValue == nil {
		return invalid("discountValue is required")
	}
	return validateCouponTerms(in.DiscountType, *in.DiscountValue, in.MinOrderValue, in.MaxDiscount, in.ValidFrom, in.ValidUntil, in.UsageLimit)
}

type CouponPatch struct {
	Description   *string          `json:"description"`
	DiscountType  *DiscountType    `json:"discountType"`
	DiscountValue *decimal.Decimal `json:"discountValue"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	ValidFrom     *time.Time       `json:"validFrom"`
	ValidUntil    *time.Time       `json:"validUntil"`
	UsageLimit    *int             `json:"usageLimit"`
	IsActive      *bool            `json:"isActive"`
}

// Validate checks the fields present in the patch; the merged coupon is
// checked again by the repository.
func (p CouponPatch) Validate() error {
	if p.DiscountType != nil && *p.DiscountType != DiscountPercentage && *p.DiscountType != DiscountFixed {
		return invalid("discountType must be percentage or fixed")
	}
	if p.DiscountValue != nil && !p.DiscountValue.IsPositive() {
		return invalid("discountValue must be greater than zero")
	}
	return nil
}

func (p CouponPatch) Apply(c *Coupon) {
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.DiscountType != nil {
		c.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		c.DiscountValue = *p.DiscountValue
	}
	if p.MinOrderValue != nil {
		c.MinOrderValue = *p.MinOrderValue
	}
	if p.MaxDiscount != nil {
		c.MaxDiscount = p.MaxDiscount
	}
	if p.ValidFrom != nil {
		c.ValidFrom = p.ValidFrom
	}
	if p.ValidUntil != nil {
		c.ValidUntil = p.ValidUntil
	}
	if p.UsageLimit != nil {
		c.UsageLimit = p.UsageLimit
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}

func validateCouponTerms(kind DiscountType, value decimal.Decimal, minOrder, maxDiscount *decimal.Decimal, from, until *time.Time, limit *int) error {
	switch kind {
	case DiscountPercentage:
		if value.GreaterThan(hundred) {
			return invalid("percentage discount cannot exceed 100")
		}
	case DiscountFixed:
	default:
		return invalid("discountType must be percentage or fixed")
	}
	if !value.IsPositive() {
		return invalid("discountValue must be greater than zero")
	}
	if minOrder != nil && minOrder.IsNegative() {
		return invalid("minOrderValue cannot be negative")
	}
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		return invalid("maxDiscount must be greater than zero")
	}
	if from != nil && until != nil && !until.After(*from) {
		return invalid("validUntil must be after validFrom")
	}
	if limit != nil && *limit < 0 {
		return invalid("usageLimit cannot be negative")
	}
	return nil
}

type CouponRepo struct{ DB DB }

const couponColumns = `id, code, description, discount_type, discount_value, min_order_value, max_discount,
	valid_from, valid_until, usage_limit, used_count, is_active, created_at, updated_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	var maxDiscount decimal.NullDecimal
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.MinOrderValue, &maxDiscount,
		&c.ValidFrom, &c.ValidUntil, &c.UsageLimit, &c.UsedCount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if maxDiscount.Valid {
		c.MaxDiscount = &maxDiscount.Decimal
	}
	return c, err
}

func (r *CouponRepo) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCoupon)
}

func (r *CouponRepo) Get(ctx context.Context, id string) (Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1`, id))
	return c, storeErr(err)
}

func (r *CouponRepo) Create(ctx context.Context, in CouponInput) (Coupon, error) {
	if err := in.Validate(); err != nil {
		return Coupon{}, err
	}
	ts := now()
	c := Coupon{
		ID:            uuid.NewString(),
		Code:          normalizeCode(in.Code),
		Description:   in.Description,
		DiscountType:  in.DiscountType,
		DiscountValue: *in.DiscountValue,
		MinOrderValue: orDefault(in.MinOrderValue, decimal.Zero),
		MaxDiscount:   in.MaxDiscount,
		ValidFrom:     in.ValidFrom,
		ValidUntil:    in.ValidUntil,
		UsageLimit:    in.UsageLimit,
		IsActive:      orDefault(in.IsActive, true),
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO coupons(`+couponColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MinOrderValue, c.MaxDiscount,
		c.ValidFrom, c.ValidUntil, c.UsageLimit, c.UsedCount, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Coupon{}, storeErr(err)
	}
	return c, nil
}

func (r *CouponRepo) Update(ctx context.Context, id string, p CouponPatch) (Coupon, error) {
	if err := p.Validate(); err != nil {
		return Coupon{}, err
	}
	c, err := r.Get(ctx, id)
	if err != nil {
		return Coupon{}, err
	}
	p.Apply(&c)
	if err := validateCouponTerms(c.DiscountType, c.DiscountValue, &c.MinOrderValue, c.MaxDiscount, c.ValidFrom, c.ValidUntil, c.UsageLimit); err != nil {
		return Coupon{}, err
	}
	c.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE coupons
		SET description=$2, discount_type=$3, discount_value=$4, min_order_value=$5, max_discount=$6,
		    valid_from=$7, valid_until=$8, usage_limit=$9, is_active=$10, updated_at=$11
		WHERE id=$1`,
		c.ID, c.Description, c.DiscountType, c.DiscountValue, c.MinOrderValue, c.MaxDiscount,
		c.ValidFrom, c.ValidUntil, c.UsageLimit, c.IsActive, c.UpdatedAt)
	if err != nil {
		return Coupon{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Coupon{}, err
	}
	return c, nil
}

func (r *CouponRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM coupons WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
