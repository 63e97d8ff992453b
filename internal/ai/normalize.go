package ai

import (
	"fmt"
	"time"

	"hubdesk/internal/config"
	"hubdesk/internal/slot"
)

// Proposal is a normalized suggestion presented to the user for explicit
// confirmation. It never commits by itself: when Complete is false the
// prefill must block submission instead of silently defaulting fields.
type Proposal struct {
	Suggestion Suggestion `json:"suggestion"`
	Complete   bool       `json:"complete"`
	Issues     []string   `json:"issues,omitempty"`

	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// Normalize checks the untrusted guess against the facility catalog and
// the slot model, producing the prefill proposal for the confirmation UI.
func Normalize(s *Suggestion, facilities *config.Facilities) Proposal {
	p := Proposal{Suggestion: *s}

	if s.Error != "" {
		p.Issues = append(p.Issues, fmt.Sprintf("assistant reported: %s", s.Error))
	}

	if s.FacilityID == "" {
		p.Issues = append(p.Issues, "facility missing")
	} else if !facilities.Known(s.FacilityID) {
		p.Issues = append(p.Issues, fmt.Sprintf("unknown facility %q", s.FacilityID))
	}

	switch {
	case s.Date == "":
		p.Issues = append(p.Issues, "date missing")
	case s.Time == "":
		p.Issues = append(p.Issues, "time missing")
	default:
		start, err := time.Parse("2006-01-02T15:04", s.Date+"T"+s.Time)
		if err != nil {
			p.Issues = append(p.Issues, "date/time not parseable")
		} else {
			p.StartTime = start.UTC()
			p.EndTime = p.StartTime.Add(slot.GridSlotDuration)
		}
	}

	p.Complete = len(p.Issues) == 0
	return p
}
