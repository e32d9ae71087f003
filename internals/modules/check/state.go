package check

// Evaluate maps a probe outcome to the state it implies for c.
func Evaluate(c Check, o Outcome) State {
	if o.Failed() || o.ResponseCode == nil {
		return Down
	}
	if c.Accepts(*o.ResponseCode) {
		return Up
	}
	return Down
}

// AlertWarranted reports whether moving c to next is a transition worth
// telling the owner about. The first run of a check never alerts.
func AlertWarranted(c Check, next State) bool {
	return c.LastCheck != nil && c.State != next
}
