package usecases

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
)

func TestParseAmounts(t *testing.T) {
	d, err := parsePositive("0.000001", "amount")
	require.NoError(t, err)
	assert.Equal(t, "0.000001", d.String())

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := parsePositive(raw, "amount")
		assert.ErrorIs(t, err, domainerrors.ErrValidation, raw)
	}

	_, err = parseFiat("10.001", "limit")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	d, err = parseFiat("10.50", "limit")
	require.NoError(t, err)
	assert.Equal(t, "10.5", d.String())

	d, err = parseCrypto("0.000000000000000001", "amount")
	require.NoError(t, err)
	assert.Equal(t, "0.000000000000000001", d.String())
	for _, raw := range []string{"0.0000000000000000001", "1e-19", "0"} {
		_, err = parseCrypto(raw, "amount")
		assert.ErrorIs(t, err, domainerrors.ErrValidation, raw)
	}
}

func TestNormalizers(t *testing.T) {
	c, err := normalizeCurrency(" uah ")
	require.NoError(t, err)
	assert.Equal(t, "UAH", c)
	_, err = normalizeCurrency("HRYV")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	n, err := normalizeCardNumber("4111 1111-1111 1111")
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", n)
	_, err = normalizeCardNumber("4111")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = normalizeCardNumber("4111x11111111111")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = requireText("  ", "bank_name")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestValidateWalletAddress(t *testing.T) {
	assert.NoError(t, ValidateWalletAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
	assert.NoError(t, ValidateWalletAddress("TQn9Y2khEsLJW1ChVWFMSMeRDow5KcbLSE"))
	assert.Error(t, ValidateWalletAddress("0x0000000000000000000000000000000000000000"))
	assert.Error(t, ValidateWalletAddress("0x123"))
	assert.Error(t, ValidateWalletAddress("T0000000000000000000000000000000000"))
	assert.Error(t, ValidateWalletAddress(""))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, authorize(entities.Actor{Role: entities.UserRoleAdmin}, entities.CapManageSettings))
	err := authorize(entities.Actor{Role: entities.UserRoleUser}, entities.CapManageSettings)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLockKeys(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	assert.Equal(t, "user:00000000-0000-0000-0000-000000000001:UAH", userCurrencyKey(id, "UAH"))
	assert.Equal(t, "card:00000000-0000-0000-0000-000000000001", cardKey(id))
	assert.Equal(t, "trader:00000000-0000-0000-0000-000000000001", traderKey(id))
}
