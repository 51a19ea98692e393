package session

import "fmt"

// Broker topics published by the health monitor.
const (
	TopicRecommendation = "health/recommendation"
	TopicSensors        = "health/sensors"
	TopicStatus         = "health/status"
	TopicAlerts         = "health/alerts"
)

// Guarantee is the MQTT delivery guarantee. Values equal the QoS byte.
type Guarantee byte

// Delivery guarantees.
const (
	AtMostOnce  Guarantee = 0
	AtLeastOnce Guarantee = 1
	ExactlyOnce Guarantee = 2
)

// String returns the guarantee name.
func (g Guarantee) String() string {
	switch g {
	case AtMostOnce:
		return "at-most-once"
	case AtLeastOnce:
		return "at-least-once"
	case ExactlyOnce:
		return "exactly-once"
	default:
		return fmt.Sprintf("guarantee(%d)", byte(g))
	}
}

// Category is the kind of record a topic carries.
type Category int

// Message categories.
const (
	CategoryRecommendation Category = iota
	CategorySensor
	CategoryStatus
	CategoryAlert

	categoryCount
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRecommendation:
		return "recommendation"
	case CategorySensor:
		return "sensor"
	case CategoryStatus:
		return "status"
	case CategoryAlert:
		return "alert"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Subscription binds a topic to the category it carries and the guarantee
// it is subscribed with.
type Subscription struct {
	Topic     string
	Category  Category
	Guarantee Guarantee
}

// DefaultSubscriptions returns the four health topics with their delivery
// guarantees. The slice is a fresh copy on every call.
func DefaultSubscriptions() []Subscription {
	return []Subscription{
		{Topic: TopicRecommendation, Category: CategoryRecommendation, Guarantee: AtLeastOnce},
		{Topic: TopicSensors, Category: CategorySensor, Guarantee: AtMostOnce},
		{Topic: TopicStatus, Category: CategoryStatus, Guarantee: AtLeastOnce},
		{Topic: TopicAlerts, Category: CategoryAlert, Guarantee: ExactlyOnce},
	}
}
