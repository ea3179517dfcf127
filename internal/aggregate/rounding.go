package aggregate

import "fmt"

// Mode selects the rounding direction.
type Mode string

const (
	ModeClosest Mode = "closest"
	ModeUp      Mode = "up"
	ModeDown    Mode = "down"
)

// ParseMode validates a rounding mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeClosest, ModeUp, ModeDown:
		return m, nil
	}
	return "", fmt.Errorf("unknown rounding mode %q (want closest, up or down)", s)
}

// Rounding configures per-description rounding.
type Rounding struct {
	Enabled          bool
	IncrementMinutes int
	Mode             Mode
}

// Round rounds seconds to a multiple of the configured increment. The sign
// is kept; closest rounds ties away from zero. Disabled rounding, or an
// increment below one minute, returns seconds unchanged.
func Round(seconds int64, r Rounding) int64 {
	if !r.Enabled || r.IncrementMinutes <= 0 {
		return seconds
	}
	inc := int64(r.IncrementMinutes) * 60

	sign := int64(1)
	abs := seconds
	if seconds < 0 {
		sign, abs = -1, -seconds
	}

	lower := abs / inc * inc
	var rounded int64
	switch r.Mode {
	case ModeDown:
		rounded = lower
	case ModeUp:
		rounded = lower
		if abs%inc != 0 {
			rounded += inc
		}
	default:
		rounded = lower
		if d := abs - lower; d > 0 && 2*d >= inc {
			rounded += inc
		}
	}
	return rounded * sign
}
