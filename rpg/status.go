package rpg

import "math"

// StatusFlags decoded from the Status scalar of a level 1 record. The value
// is written as a decimal number WXYZ where every digit is 0 or 1.
type StatusFlags struct {
	Heater         bool // Z
	Blower         bool // Y
	HatproTemp     bool // X, temperature profile from a coupled HATPRO
	HatproHumidity bool // W, humidity profile from a coupled HATPRO
}

// DecodeStatusFlags splits the status digits. It reports false for negative
// or fractional values and for any of the four digits other than 0 or 1.
func DecodeStatusFlags(status float32) (StatusFlags, bool) {
	v := float64(status)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v != math.Trunc(v) {
		return StatusFlags{}, false
	}
	// digits above W are not defined and ignored
	digits := [4]int{}
	for i := range digits {
		digits[i] = int(math.Mod(v, 10))
		if digits[i] > 1 {
			return StatusFlags{}, false
		}
		v = math.Floor(v / 10)
	}
	return StatusFlags{
		Heater:         digits[0] == 1,
		Blower:         digits[1] == 1,
		HatproTemp:     digits[2] == 1,
		HatproHumidity: digits[3] == 1,
	}, true
}
