package events

import "github.com/shopspring/decimal"

type InquiryCreatedPayload struct {
	InquiryID string `json:"inquiry_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	EventDate string `json:"event_date,omitempty"`
}

type NewsletterSubscribedPayload struct {
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email"`
	Source       string `json:"source"`
	Outcome      string `json:"outcome"` // created | resubscribed
}

type OrderPlacedPayload struct {
	OrderID      string          `json:"order_id"`
	ExternalID   string          `json:"external_id"`
	CustomerName string          `json:"customer_name"`
	Pincode      string          `json:"pincode"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
