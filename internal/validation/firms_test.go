package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContraFirmTable(t *testing.T) {
	assert.True(t, KnownContraFirm("0001"))
	assert.True(t, KnownContraFirm("0010"))
	assert.False(t, KnownContraFirm("9999"))
	assert.False(t, KnownContraFirm(""))

	assert.Equal(t, "Fidelity Investments", ContraFirmName(DefaultContraFirm))
	assert.Empty(t, ContraFirmName("4242"))
}

func TestContraFirmsReturnsCopy(t *testing.T) {
	firms := ContraFirms()
	assert.GreaterOrEqual(t, len(firms), 10)

	firms["0001"] = "mutated"
	assert.Equal(t, "Fidelity Investments", ContraFirmName("0001"))
}

func TestContraFirmCodesSorted(t *testing.T) {
	codes := ContraFirmCodes()
	assert.GreaterOrEqual(t, len(codes), 10)
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
}
