package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateAvailability = "availability"
	AggregateBarber       = "barber"
	AggregateAccount      = "account"

	EventAvailabilitySaved    = "salon.availability.saved.v1"
	EventAvailabilityReplaced = "salon.availability.replaced.v1"
	EventAvailabilityDeleted  = "salon.availability.deleted.v1"
	EventBarberAssigned       = "salon.barber.assigned.v1"
	EventOwnerRegistered      = "salon.owner.registered.v1"
	EventStaffRegistered      = "salon.staff.registered.v1"
)

// AvailabilityPayload is the body of the availability events.
type AvailabilityPayload struct {
	CreatedBy string   `json:"created_by"`
	Locations []string `json:"locations"`
	Groups    int      `json:"groups"`
}
