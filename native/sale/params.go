package sale

import "fmt"

const (
	// DefaultBaseOwnerPct is the base referral share credited to a promo code
	// owner, as a percentage of the discounted purchase cost.
	DefaultBaseOwnerPct = 8
	// DefaultMasterOwnerPct is the referral share credited to a promo code's
	// master owner.
	DefaultMasterOwnerPct = 2
	// DefaultWalletPromoPct is both the discount and the referral share
	// applied when the promo code is a wallet address.
	DefaultWalletPromoPct = 10
)

// RewardParams fixes the referral percentages used by the purchase engine.
// They are global configuration, not per-tier state; tiers only contribute the
// bonus percentage on top of the base owner share.
type RewardParams struct {
	BaseOwnerPct   uint32
	MasterOwnerPct uint32
	WalletPromoPct uint32
}

// DefaultRewardParams returns the module defaults.
func DefaultRewardParams() RewardParams {
	return RewardParams{
		BaseOwnerPct:   DefaultBaseOwnerPct,
		MasterOwnerPct: DefaultMasterOwnerPct,
		WalletPromoPct: DefaultWalletPromoPct,
	}
}

// Validate rejects percentages that cannot be applied to a purchase. The
// combined owner and master share must leave the named-code split within the
// purchase cost even before a tier bonus is added.
func (p RewardParams) Validate() error {
	if p.BaseOwnerPct+p.MasterOwnerPct > 100 {
		return fmt.Errorf("sale: owner and master percentages exceed 100: %d+%d", p.BaseOwnerPct, p.MasterOwnerPct)
	}
	if p.WalletPromoPct == 0 || p.WalletPromoPct > 100 {
		return fmt.Errorf("sale: wallet promo percentage out of range: %d", p.WalletPromoPct)
	}
	return nil
}

// MaxBonusPct returns the tier bonus headroom left by the owner and master
// shares. A tier whose bonus stays within this bound can never accrue more in
// rewards than the purchase paid into the vault.
func (p RewardParams) MaxBonusPct() uint32 {
	return 100 - p.BaseOwnerPct - p.MasterOwnerPct
}
