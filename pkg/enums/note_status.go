package enums

import "fmt"

// NoteStatus tracks whether a thank-you note has been sent.
type NoteStatus string

const (
	NoteStatusDraft NoteStatus = "draft"
	NoteStatusSent  NoteStatus = "sent"
)

var validNoteStatuses = []NoteStatus{
	NoteStatusDraft,
	NoteStatusSent,
}

// String implements fmt.Stringer.
func (s NoteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s NoteStatus) IsValid() bool {
	for _, candidate := range validNoteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNoteStatus converts raw input into a NoteStatus.
func ParseNoteStatus(value string) (NoteStatus, error) {
	for _, candidate := range validNoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid note status %q", value)
}
