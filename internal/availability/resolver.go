package availability

import "time"

// OutcomeKind classifies the result of resolving a slot against a rule list.
type OutcomeKind int

const (
	// OutcomeNone means no rule is relevant to the requested slot.
	OutcomeNone OutcomeKind = iota
	// OutcomeOne means exactly one rule governs the requested slot.
	OutcomeOne
	// OutcomeAmbiguous means the slot touches more than one rule.
	OutcomeAmbiguous
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOne:
		return "one"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Outcome is the result of Resolve.
type Outcome struct {
	kind     OutcomeKind
	matching []Setting
}

// Kind returns the classification.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Setting returns the governing rule when Kind is OutcomeOne.
func (o Outcome) Setting() (Setting, bool) {
	if o.kind != OutcomeOne {
		return Setting{}, false
	}
	return o.matching[0], true
}

// Matching returns a copy of every relevant rule in priority order.
func (o Outcome) Matching() []Setting {
	out := make([]Setting, len(o.matching))
	copy(out, o.matching)
	return out
}

// Resolve finds the rules relevant to slot on the weekday of date. A rule is
// relevant when it is enabled on that weekday and its window overlaps slot.
// More than one relevant rule is reported as ambiguous; PriorityOrder does
// not break the tie.
func Resolve(settings Settings, date time.Time, slot TimeSlot) Outcome {
	day := date.Weekday()
	matching := make([]Setting, 0, 1)
	for _, item := range settings.items {
		if item.IsRelevant(day, slot) {
			matching = append(matching, item)
		}
	}

	switch len(matching) {
	case 0:
		return Outcome{kind: OutcomeNone}
	case 1:
		return Outcome{kind: OutcomeOne, matching: matching}
	default:
		return Outcome{kind: OutcomeAmbiguous, matching: matching}
	}
}
