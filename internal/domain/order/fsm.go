package order

var transitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCanceled},
	StatusShipped: {StatusDelivered},
}

// AllStatuses lists every known status in lifecycle order
func AllStatuses() []Status {
	return []Status{StatusPending, StatusShipped, StatusDelivered, StatusCanceled}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusStrings is used to register the order_status validator
func StatusStrings() []string {
	all := AllStatuses()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = string(s)
	}
	return out
}
