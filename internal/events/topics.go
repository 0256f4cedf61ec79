package events

const (
	TopicInquiries  = "storefront.inquiries"
	TopicNewsletter = "storefront.newsletter"
	TopicOrders     = "storefront.orders"
)

func Topics() []string { return []string{TopicInquiries, TopicNewsletter, TopicOrders} }

// TopicFor routes an event type to its topic. Unknown types return "".
func TopicFor(eventType string) string {
	switch eventType {
	case EventInquiryCreated:
		return TopicInquiries
	case EventNewsletterSubscribed:
		return TopicNewsletter
	case EventOrderPlaced, EventOrderStatusChanged:
		return TopicOrders
	}
	return ""
}

// Partition key = entity id, so all events for one order stay ordered.
func PartitionKey(id string) []byte { return []byte(id) }
