package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"launchpad/core/types"
)

const (
	// TypeSaleTierUpdated is emitted whenever a tier configuration is created
	// or any of its fields are overwritten.
	TypeSaleTierUpdated = "sale.tier.updated"
	// TypeSalePromoCodeAdded is emitted when a promo code is registered.
	TypeSalePromoCodeAdded = "sale.promo.added"
	// TypeSalePurchaseCompleted is emitted after a purchase commits, whether
	// or not a promo code was applied.
	TypeSalePurchaseCompleted = "sale.purchase.completed"
	// TypeSaleRewardWithdrawn is emitted when a referral reward balance is
	// paid out to its owner or master owner.
	TypeSaleRewardWithdrawn = "sale.reward.withdrawn"
	// TypeSaleProceedsCashed is emitted when the sale owner withdraws
	// payment-asset proceeds in excess of unclaimed rewards.
	TypeSaleProceedsCashed = "sale.cash.payment"
	// TypeSaleAssetCashed is emitted when the sale owner withdraws unsold
	// sale-asset after the sale end condition holds.
	TypeSaleAssetCashed = "sale.cash.sale_asset"
)

// SaleTierUpdated captures the configuration of a tier after a registry write.
type SaleTierUpdated struct {
	TierID string
	Price  *big.Int
	Halted bool
}

// EventType implements the Event interface.
func (SaleTierUpdated) EventType() string { return TypeSaleTierUpdated }

// Event converts the update to the generic event payload.
func (e SaleTierUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleTierUpdated,
		Attributes: map[string]string{
			"tier":   e.TierID,
			"price":  bigString(e.Price),
			"halted": strconv.FormatBool(e.Halted),
		},
	}
}

// SalePromoCodeAdded captures the registration of a promo code.
type SalePromoCodeAdded struct {
	Code     string
	Discount uint32
	Owner    [20]byte
	Master   [20]byte
}

// EventType implements the Event interface.
func (SalePromoCodeAdded) EventType() string { return TypeSalePromoCodeAdded }

// Event converts the registration to the generic event payload.
func (e SalePromoCodeAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeSalePromoCodeAdded,
		Attributes: map[string]string{
			"code":     e.Code,
			"discount": strconv.FormatUint(uint64(e.Discount), 10),
			"owner":    hex.EncodeToString(e.Owner[:]),
			"master":   hex.EncodeToString(e.Master[:]),
		},
	}
}

// SalePurchaseCompleted captures a settled purchase.
type SalePurchaseCompleted struct {
	TierID    string
	Buyer     [20]byte
	Amount    *big.Int
	TotalCost *big.Int
	PromoCode string
	Discount  uint32
}

// EventType implements the Event interface.
func (SalePurchaseCompleted) EventType() string { return TypeSalePurchaseCompleted }

// Event converts the purchase to the generic event payload.
func (e SalePurchaseCompleted) Event() *types.Event {
	attrs := map[string]string{
		"tier":   e.TierID,
		"buyer":  hex.EncodeToString(e.Buyer[:]),
		"amount": bigString(e.Amount),
		"cost":   bigString(e.TotalCost),
	}
	if e.PromoCode != "" {
		attrs["promoCode"] = e.PromoCode
		attrs["discount"] = strconv.FormatUint(uint64(e.Discount), 10)
	}
	return &types.Event{Type: TypeSalePurchaseCompleted, Attributes: attrs}
}

// SaleRewardWithdrawn captures a referral reward payout.
type SaleRewardWithdrawn struct {
	Code      string
	Recipient [20]byte
	Amount    *big.Int
}

// EventType implements the Event interface.
func (SaleRewardWithdrawn) EventType() string { return TypeSaleRewardWithdrawn }

// Event converts the withdrawal to the generic event payload.
func (e SaleRewardWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleRewardWithdrawn,
		Attributes: map[string]string{
			"code":      e.Code,
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"amount":    bigString(e.Amount),
		},
	}
}

// SaleProceedsCashed captures an owner withdrawal of payment proceeds.
type SaleProceedsCashed struct {
	Owner  [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (SaleProceedsCashed) EventType() string { return TypeSaleProceedsCashed }

// Event converts the cash-out to the generic event payload.
func (e SaleProceedsCashed) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleProceedsCashed,
		Attributes: map[string]string{
			"owner":  hex.EncodeToString(e.Owner[:]),
			"amount": bigString(e.Amount),
		},
	}
}

// SaleAssetCashed captures an owner withdrawal of unsold sale-asset.
type SaleAssetCashed struct {
	Owner  [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (SaleAssetCashed) EventType() string { return TypeSaleAssetCashed }

// Event converts the cash-out to the generic event payload.
func (e SaleAssetCashed) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleAssetCashed,
		Attributes: map[string]string{
			"owner":  hex.EncodeToString(e.Owner[:]),
			"amount": bigString(e.Amount),
		},
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
