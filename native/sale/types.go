package sale

import (
	"fmt"
	"math/big"
	"strings"
)

// Tier captures the configuration of one independently priced sub-sale.
type Tier struct {
	ID                     string
	Price                  *big.Int
	MaxTotalPurchasable    *big.Int
	MaxAllocationPerWallet *big.Int
	WhitelistRoot          [32]byte
	BonusPercentage        uint32
	Halted                 bool
	AllowPromoCode         bool
	AllowWalletPromoCode   bool
}

// Open reports whether the tier accepts any wallet without a Merkle proof.
func (t *Tier) Open() bool {
	if t == nil {
		return false
	}
	return t.WhitelistRoot == ([32]byte{})
}

// Clone returns a deep copy to avoid callers mutating shared pointers.
func (t *Tier) Clone() *Tier {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Price = cloneBigInt(t.Price)
	clone.MaxTotalPurchasable = cloneBigInt(t.MaxTotalPurchasable)
	clone.MaxAllocationPerWallet = cloneBigInt(t.MaxAllocationPerWallet)
	return &clone
}

// SanitizeTier validates a tier definition and returns a normalized deep copy.
func SanitizeTier(t *Tier) (*Tier, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tier", ErrInvalidTier)
	}
	clone := t.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	if clone.ID == "" {
		return nil, fmt.Errorf("%w: identifier required", ErrInvalidTier)
	}
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidTier)
	}
	if clone.MaxTotalPurchasable.Sign() < 0 {
		return nil, fmt.Errorf("%w: tier cap must be non-negative", ErrInvalidTier)
	}
	if clone.MaxAllocationPerWallet.Sign() < 0 {
		return nil, fmt.Errorf("%w: wallet cap must be non-negative", ErrInvalidTier)
	}
	if clone.BonusPercentage > 100 {
		return nil, fmt.Errorf("%w: bonus percentage above 100", ErrInvalidTier)
	}
	return clone, nil
}

// PromoCode captures a referral code and its accrued, withdrawable earnings.
// Wallet-shaped codes are auto-registered on first successful use with the
// encoded wallet as owner and no master owner.
type PromoCode struct {
	Code               string
	DiscountPercentage uint32
	Owner              [20]byte
	Master             [20]byte
	OwnerEarnings      *big.Int
	MasterEarnings     *big.Int
	TotalPurchased     *big.Int
}

// Clone returns a deep copy to avoid callers mutating shared pointers.
func (p *PromoCode) Clone() *PromoCode {
	if p == nil {
		return nil
	}
	clone := *p
	clone.OwnerEarnings = cloneBigInt(p.OwnerEarnings)
	clone.MasterEarnings = cloneBigInt(p.MasterEarnings)
	clone.TotalPurchased = cloneBigInt(p.TotalPurchased)
	return &clone
}

func (p *PromoCode) normalize() {
	if p.OwnerEarnings == nil {
		p.OwnerEarnings = big.NewInt(0)
	}
	if p.MasterEarnings == nil {
		p.MasterEarnings = big.NewInt(0)
	}
	if p.TotalPurchased == nil {
		p.TotalPurchased = big.NewInt(0)
	}
}

func (p *PromoCode) outstanding() *big.Int {
	total := big.NewInt(0)
	if p == nil {
		return total
	}
	if p.OwnerEarnings != nil {
		total.Add(total, p.OwnerEarnings)
	}
	if p.MasterEarnings != nil {
		total.Add(total, p.MasterEarnings)
	}
	return total
}

// Summary aggregates the sale-wide counters exposed for reporting.
type Summary struct {
	TotalUnitsSold        *big.Int
	TotalRewardsUnclaimed *big.Int
	VaultPaymentBalance   *big.Int
	VaultSaleAssetBalance *big.Int
	UnitsSoldByTier       map[string]*big.Int
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
