package shop

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var statuses = map[Status]bool{
	StatusPending:        true,
	StatusConfirmed:      true,
	StatusProcessing:     true,
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
}

// Statuses lists every order status in fulfilment order.
func Statuses() []Status {
	return []Status{
		StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled,
	}
}

func (s Status) Valid() bool { return statuses[s] }

// ParseStatus accepts only the enumerated values. Any status may follow any
// other; admins correct mistakes by setting the status directly.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", invalid("invalid status %q", raw)
	}
	return s, nil
}
