package sale

import (
	"errors"

	nativecommon "launchpad/native/common"
)

var (
	ErrUnauthorized         = errors.New("sale: unauthorized")
	ErrTierNotFound         = errors.New("sale: tier not found")
	ErrInvalidTier          = errors.New("sale: invalid tier")
	ErrTierHalted           = errors.New("sale: tier halted")
	ErrInvalidAmount        = errors.New("sale: amount must be positive")
	ErrWhitelistProof       = errors.New("sale: whitelist proof rejected")
	ErrAllocationExceeded   = errors.New("sale: whitelist allocation exceeded")
	ErrWalletCapExceeded    = errors.New("sale: wallet cap exceeded")
	ErrTierCapExceeded      = errors.New("sale: tier cap exceeded")
	ErrInvalidPromoCode     = errors.New("sale: invalid promo code")
	ErrPromoCodeNotAllowed  = errors.New("sale: promo code not allowed in tier")
	ErrPromoCodeIneligible  = errors.New("sale: promo code ineligible")
	ErrPromoCodeOutstanding = errors.New("sale: promo code has unclaimed earnings")
	ErrInsufficientBalance  = errors.New("sale: insufficient payment balance")
	ErrNoRewards            = errors.New("sale: no rewards to withdraw")
	ErrNoProceeds           = errors.New("sale: no proceeds available")
	ErrNoSaleAsset          = errors.New("sale: no sale asset available")
	ErrSaleNotEnded         = errors.New("sale: sale not ended")
	ErrReentrantCall        = errors.New("sale: reentrant call")

	errNilState = errors.New("sale engine: state not configured")
)

// failureReason maps an operation error onto the stable label reported to the
// metrics sink.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTierNotFound):
		return "tier_not_found"
	case errors.Is(err, ErrTierHalted):
		return "tier_halted"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrWhitelistProof):
		return "whitelist_proof"
	case errors.Is(err, ErrAllocationExceeded):
		return "allocation_exceeded"
	case errors.Is(err, ErrWalletCapExceeded):
		return "wallet_cap"
	case errors.Is(err, ErrTierCapExceeded):
		return "tier_cap"
	case errors.Is(err, ErrPromoCodeNotAllowed):
		return "promo_not_allowed"
	case errors.Is(err, ErrPromoCodeIneligible):
		return "promo_ineligible"
	case errors.Is(err, ErrInvalidPromoCode):
		return "invalid_promo"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrReentrantCall):
		return "reentrant"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "module_paused"
	default:
		return "internal"
	}
}
