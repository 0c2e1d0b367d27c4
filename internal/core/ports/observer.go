package ports

// Action is a state change notification emitted by the coinjoin service.
type Action struct {
	Type       string
	AccountKey string
	Network    string
	Payload    interface{}
}

// ActionObserver is notified of every action, in order.
type ActionObserver interface {
	Notify(action Action)
}
