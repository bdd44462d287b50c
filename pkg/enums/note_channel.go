package enums

import "fmt"

// NoteChannel is the delivery medium for a thank-you note.
type NoteChannel string

const (
	NoteChannelEmail NoteChannel = "email"
	NoteChannelText  NoteChannel = "text"
	NoteChannelCard  NoteChannel = "card"
)

var validNoteChannels = []NoteChannel{
	NoteChannelEmail,
	NoteChannelText,
	NoteChannelCard,
}

// String implements fmt.Stringer.
func (c NoteChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c NoteChannel) IsValid() bool {
	for _, candidate := range validNoteChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseNoteChannel converts raw input into a NoteChannel.
func ParseNoteChannel(value string) (NoteChannel, error) {
	for _, candidate := range validNoteChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid note channel %q", value)
}
