package usecases

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/pkg/money"
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	// TRC-20 receiving addresses: base58, 34 chars, leading T
	tronAddressPattern = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
)

// authorize fails Forbidden unless the actor's role grants c.
func authorize(actor entities.Actor, c entities.Capability) error {
	if !actor.Can(c) {
		return domainerrors.Forbidden(fmt.Sprintf("role %q may not %s", actor.Role, c))
	}
	return nil
}

func parsePositive(raw, field string) (decimal.Decimal, error) {
	d, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, domainerrors.Validation(field + " must be a decimal number")
	}
	if !d.IsPositive() {
		return decimal.Zero, domainerrors.Validation(field + " must be greater than zero")
	}
	return d, nil
}

// parseCrypto accepts at most CryptoPlaces decimal places, the precision
// crypto amounts and balances are stored with.
func parseCrypto(raw, field string) (decimal.Decimal, error) {
	d, err := parsePositive(raw, field)
	if err != nil {
		return d, err
	}
	if money.ExceedsPlaces(d, money.CryptoPlaces) {
		return decimal.Zero, domainerrors.Validation(fmt.Sprintf("%s must have at most %d decimal places", field, money.CryptoPlaces))
	}
	return d, nil
}

// parseFiat accepts at most two decimal places.
func parseFiat(raw, field string) (decimal.Decimal, error) {
	d, err := parsePositive(raw, field)
	if err != nil {
		return d, err
	}
	if !money.RoundFiat(d).Equal(d) {
		return decimal.Zero, domainerrors.Validation(field + " must have at most 2 decimal places")
	}
	return d, nil
}

func normalizeCurrency(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if !currencyPattern.MatchString(c) {
		return "", domainerrors.Validation("currency must be a 3-letter code")
	}
	return c, nil
}

func normalizeCardNumber(raw string) (string, error) {
	n := strings.NewReplacer(" ", "", "-", "").Replace(raw)
	if len(n) < 12 || len(n) > 19 {
		return "", domainerrors.Validation("card_number must have 12 to 19 digits")
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return "", domainerrors.Validation("card_number must contain digits only")
		}
	}
	return n, nil
}

func requireText(raw, field string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", domainerrors.Validation(field + " is required")
	}
	return v, nil
}

// ValidateWalletAddress accepts a non-zero ERC-20 hex address or a TRC-20
// base58 address.
func ValidateWalletAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if common.IsHexAddress(addr) && common.HexToAddress(addr) != (common.Address{}) {
		return nil
	}
	if tronAddressPattern.MatchString(addr) {
		return nil
	}
	return domainerrors.Validation("address must be an ERC-20 (0x...) or TRC-20 (T...) wallet address")
}

func userCurrencyKey(userID uuid.UUID, currency string) string {
	return "user:" + userID.String() + ":" + currency
}

func cardKey(id uuid.UUID) string {
	return "card:" + id.String()
}

func traderKey(id uuid.UUID) string {
	return "trader:" + id.String()
}
