package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

const icsDateLayout = "20060102"

// CalendarICS renders every pending reminder across the user's lists as an
// iCalendar feed, one all-day VEVENT per reminder.
func (s *Service) CalendarICS(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	rows, err := s.repo.ListPendingByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending reminders")
	}

	var b strings.Builder
	writeICSLine(&b, "BEGIN:VCALENDAR")
	writeICSLine(&b, "VERSION:2.0")
	writeICSLine(&b, "PRODID:-//Thankaroo//Reminders//EN")
	writeICSLine(&b, "CALSCALE:GREGORIAN")

	now := time.Now().UTC().Format("20060102T150405Z")
	for i := range rows {
		reminder := &rows[i]
		writeICSLine(&b, "BEGIN:VEVENT")
		writeICSLine(&b, "UID:"+reminder.ID.String()+"@thankaroo")
		writeICSLine(&b, "DTSTAMP:"+now)
		writeICSLine(&b, "DTSTART;VALUE=DATE:"+reminder.DueAt.Format(icsDateLayout))
		writeICSLine(&b, "DTEND;VALUE=DATE:"+reminder.DueAt.AddDate(0, 0, 1).Format(icsDateLayout))
		writeICSLine(&b, "SUMMARY:"+escapeICS(eventSummary(reminder)))
		if description := eventDescription(reminder); description != "" {
			writeICSLine(&b, "DESCRIPTION:"+escapeICS(description))
		}
		writeICSLine(&b, "END:VEVENT")
	}

	writeICSLine(&b, "END:VCALENDAR")
	return []byte(b.String()), nil
}

func eventSummary(reminder *models.Reminder) string {
	if len(reminder.GiftSnapshot) > 0 {
		var snapshot models.GiftSnapshotPayload
		if err := json.Unmarshal(reminder.GiftSnapshot, &snapshot); err == nil && snapshot.GuestName != "" {
			return fmt.Sprintf("Thank-you note for %s", snapshot.GuestName)
		}
	}
	return "Thank-you note reminder"
}

func eventDescription(reminder *models.Reminder) string {
	if len(reminder.GiftSnapshot) == 0 {
		return ""
	}
	var snapshot models.GiftSnapshotPayload
	if err := json.Unmarshal(reminder.GiftSnapshot, &snapshot); err != nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if snapshot.Description != "" {
		parts = append(parts, "Gift: "+snapshot.Description)
	}
	if snapshot.DateReceived != "" {
		parts = append(parts, "Received: "+snapshot.DateReceived)
	}
	return strings.Join(parts, "\n")
}

// writeICSLine appends a content line with the CRLF terminator RFC 5545
// requires.
func writeICSLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

func escapeICS(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return replacer.Replace(value)
}
