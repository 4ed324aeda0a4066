package rpg_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jddeal/go-rpgradar/rpg"
)

func TestDecodeStatusFlags(t *testing.T) {
	tests := []struct {
		status float32
		want   rpg.StatusFlags
		ok     bool
	}{
		{0, rpg.StatusFlags{}, true},
		{1, rpg.StatusFlags{Heater: true}, true},
		{10, rpg.StatusFlags{Blower: true}, true},
		{101, rpg.StatusFlags{Heater: true, HatproTemp: true}, true},
		{1111, rpg.StatusFlags{Heater: true, Blower: true, HatproTemp: true, HatproHumidity: true}, true},
		{2, rpg.StatusFlags{}, false},
		{1.5, rpg.StatusFlags{}, false},
		{-1, rpg.StatusFlags{}, false},
		{10000, rpg.StatusFlags{}, true},
		{21000, rpg.StatusFlags{HatproHumidity: true}, true},
		{float32(math.NaN()), rpg.StatusFlags{}, false},
	}
	for _, tt := range tests {
		got, ok := rpg.DecodeStatusFlags(tt.status)
		assert.Equal(t, tt.ok, ok, tt.status)
		assert.Equal(t, tt.want, got, tt.status)
	}
}
