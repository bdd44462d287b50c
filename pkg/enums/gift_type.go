package enums

import "fmt"

// GiftType classifies how a gift arrived.
type GiftType string

const (
	GiftTypeNonRegistry GiftType = "non registry"
	GiftTypeMonetary    GiftType = "monetary"
	GiftTypeRegistry    GiftType = "registry"
	GiftTypeMultiple    GiftType = "multiple"
)

var validGiftTypes = []GiftType{
	GiftTypeNonRegistry,
	GiftTypeMonetary,
	GiftTypeRegistry,
	GiftTypeMultiple,
}

// String implements fmt.Stringer.
func (g GiftType) String() string {
	return string(g)
}

// IsValid reports whether the value is known.
func (g GiftType) IsValid() bool {
	for _, candidate := range validGiftTypes {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftType converts raw input into a GiftType.
func ParseGiftType(value string) (GiftType, error) {
	for _, candidate := range validGiftTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift type %q", value)
}
