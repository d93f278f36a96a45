package spline

import (
	"fmt"
	"strings"
)

// AlignmentMode controls how an anchor's two handles relate to each other.
type AlignmentMode uint8

const (
	// ModeFree leaves both handles independent.
	ModeFree AlignmentMode = iota
	// ModeAligned keeps the handles collinear through the anchor while
	// preserving each handle's own length.
	ModeAligned
	// ModeMirrored keeps the handles collinear and of equal length.
	ModeMirrored
	// ModeAutomatic derives both handles from the neighboring anchors.
	ModeAutomatic
)

var modeNames = [...]string{"free", "aligned", "mirrored", "automatic"}

func (m AlignmentMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// MarshalText encodes the mode by name.
func (m AlignmentMode) MarshalText() ([]byte, error) {
	if int(m) >= len(modeNames) {
		return nil, fmt.Errorf("unknown alignment mode %d", m)
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText decodes a mode name, case-insensitively.
func (m *AlignmentMode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode parses a mode name.
func ParseMode(s string) (AlignmentMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return AlignmentMode(i), nil
		}
	}
	return ModeFree, fmt.Errorf("unknown alignment mode %q", s)
}
