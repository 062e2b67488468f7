// Package calendar implements the data-acquisition capability: fetching
// meeting records from Google Calendar and exposing them to the acquisition
// agent as tools. A MeetingSource interface keeps the tools testable without
// network access.
package calendar

import (
	"strings"
	"time"
)

// Attendee is one participant identity on a meeting.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"` // "needsAction", "declined", "tentative", "accepted"
	Organizer      bool   `json:"organizer,omitempty"`
}

// Meeting is one acquired calendar record: identifier, time span, organizer
// and participant identities, and free-text content.
type Meeting struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Organizer   string     `json:"organizer"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

// Duration returns the meeting's time span.
func (m Meeting) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// Stats aggregates simple statistics over a meeting set.
type Stats struct {
	Total         int            `json:"total"`
	TotalMinutes  int            `json:"totalMinutes"`
	ByOrganizer   map[string]int `json:"byOrganizer"`
	BusiestDay    string         `json:"busiestDay,omitempty"`
	AverageLength int            `json:"averageMinutes"`
}

// FilterByOrganizer returns the meetings whose organizer matches the given
// identity, case-insensitively, by exact email or substring of the name.
func FilterByOrganizer(meetings []Meeting, organizer string) []Meeting {
	needle := strings.ToLower(strings.TrimSpace(organizer))
	if needle == "" {
		return meetings
	}
	var out []Meeting
	for _, m := range meetings {
		if strings.Contains(strings.ToLower(m.Organizer), needle) {
			out = append(out, m)
		}
	}
	return out
}

// ComputeStats derives aggregate statistics for a meeting set.
func ComputeStats(meetings []Meeting) Stats {
	stats := Stats{Total: len(meetings), ByOrganizer: map[string]int{}}
	if len(meetings) == 0 {
		return stats
	}

	byDay := map[string]int{}
	totalMinutes := 0
	for _, m := range meetings {
		totalMinutes += int(m.Duration().Minutes())
		stats.ByOrganizer[m.Organizer]++
		byDay[m.Start.Format("2006-01-02")]++
	}

	stats.TotalMinutes = totalMinutes
	stats.AverageLength = totalMinutes / len(meetings)

	busiest, max := "", 0
	for day, count := range byDay {
		if count > max || (count == max && day < busiest) {
			busiest, max = day, count
		}
	}
	stats.BusiestDay = busiest

	return stats
}
