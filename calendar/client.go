package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// MeetingSource fetches meeting records for a time range. The acquisition
// tools depend on this interface so tests can substitute a fake.
type MeetingSource interface {
	FetchMeetings(ctx context.Context, start, end time.Time) ([]Meeting, error)
}

// Client wraps the Google Calendar service as a MeetingSource.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// ClientOptions configure the Calendar client.
type ClientOptions struct {
	// CalendarID selects the calendar to read. Defaults to "primary".
	CalendarID string
}

// NewClient creates a Calendar client from an OAuth2 token source.
func NewClient(ctx context.Context, tokenSource oauth2.TokenSource, optFns ...func(o *ClientOptions)) (*Client, error) {
	opts := ClientOptions{CalendarID: "primary"}
	for _, fn := range optFns {
		fn(&opts)
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{svc: svc, calendarID: opts.CalendarID}, nil
}

// NewClientFromService wraps an already constructed Calendar service.
func NewClientFromService(svc *calendar.Service, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{CalendarID: "primary"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{svc: svc, calendarID: opts.CalendarID}
}

// FetchMeetings implements MeetingSource by listing single events in the
// range, expanding recurring series.
func (c *Client) FetchMeetings(ctx context.Context, start, end time.Time) ([]Meeting, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	var meetings []Meeting
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		for _, ev := range events.Items {
			if ev.Status == "cancelled" {
				continue
			}
			m, ok := convertEvent(ev)
			if ok {
				meetings = append(meetings, m)
			}
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return meetings, nil
}

// convertEvent maps a Calendar API event to a Meeting. All-day events carry
// only a date; those are skipped since the report covers timed meetings.
func convertEvent(ev *calendar.Event) (Meeting, bool) {
	if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return Meeting{}, false
	}

	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return Meeting{}, false
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return Meeting{}, false
	}

	m := Meeting{
		ID:          ev.Id,
		Subject:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start,
		End:         end,
	}

	if ev.Organizer != nil {
		m.Organizer = ev.Organizer.Email
		if ev.Organizer.DisplayName != "" {
			m.Organizer = ev.Organizer.DisplayName
		}
	}

	for _, att := range ev.Attendees {
		if att.Resource {
			continue // meeting rooms and equipment
		}
		m.Attendees = append(m.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Organizer:      att.Organizer,
		})
	}

	return m, true
}
