package events

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypeTransactionCompleted EventType = "Transaction.Completed"
	EventTypeAccountOpened        EventType = "Account.Opened"
	EventTypeAccountStatusChanged EventType = "Account.StatusChanged"
	EventTypeCardIssued           EventType = "Card.Issued"
	EventTypeCardStatusChanged    EventType = "Card.StatusChanged"
	EventTypeUserRegistered       EventType = "User.Registered"
)

func (t EventType) String() string { return string(t) }
