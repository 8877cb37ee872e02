package navigate

// State is a step of the path from a blank tab to a page showing showtime
// cards.
type State int

const (
	Idle State = iota
	BaseLoaded
	ConsentResolved
	CinemaSelected
	SecondarySelected
	DateSelected
	CardsReady
)

var stateNames = [...]string{
	Idle:              "idle",
	BaseLoaded:        "base_loaded",
	ConsentResolved:   "consent_resolved",
	CinemaSelected:    "cinema_selected",
	SecondarySelected: "secondary_selected",
	DateSelected:      "date_selected",
	CardsReady:        "cards_ready",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Outcome records how far navigation got. Warnings hold the non-fatal
// failures met on the way; Path lists every state entered, in order.
type Outcome struct {
	Path     []State
	Cards    int
	Warnings []string
}

// State returns the last state entered.
func (o Outcome) State() State {
	if len(o.Path) == 0 {
		return Idle
	}
	return o.Path[len(o.Path)-1]
}

// Reached reports whether s was entered.
func (o Outcome) Reached(s State) bool {
	for _, p := range o.Path {
		if p == s {
			return true
		}
	}
	return false
}

// Degraded reports whether any step failed.
func (o Outcome) Degraded() bool { return len(o.Warnings) > 0 }
