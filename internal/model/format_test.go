package model

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		value    uint64
		decimals uint8
		want     string
	}{
		{1500, 0, "1500"},
		{1500, 3, "1.500"},
		{5, 2, "0.05"},
		{0, 18, "0.000000000000000000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatAmount(uint256.NewInt(tc.value), tc.decimals))
	}
	assert.Equal(t, "0", FormatAmount(nil, 18))
}

func TestReservesRatio(t *testing.T) {
	r := NewReserves(uint256.NewInt(2), uint256.NewInt(500))
	assert.Equal(t, "250.000000000000000000", r.Ratio())
	assert.Equal(t, "", Reserves{}.Ratio())
}

func TestStateRecordRoundTrip(t *testing.T) {
	state := State{Reserves: NewReserves(uint256.NewInt(2), uint256.NewInt(500)), Initialized: true}
	rec := RecordFromState(state, "2024-01-01T00:00:00Z")
	assert.Equal(t, "2", rec.BaseReserve)
	assert.Equal(t, "500", rec.TokenReserve)

	back, err := rec.State()
	assert.NoError(t, err)
	assert.Equal(t, state, back)

	_, err = StateRecord{BaseReserve: "abc"}.State()
	assert.Error(t, err)
}
