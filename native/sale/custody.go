package sale

import (
	"fmt"
	"math/big"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

// WithdrawReward pays out the caller's accrued referral balance for the code.
// The caller must be the code's owner or master owner; the matching earnings
// field is zeroed and the unclaimed total is decremented by the same amount.
func (e *Engine) WithdrawReward(caller [20]byte, code string) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	canonical := canonicalCode(code)
	record, found, err := loadPromoCode(e.st, canonical)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, canonical)
	}
	var amount *big.Int
	switch caller {
	case record.Owner:
		amount = cloneBigInt(record.OwnerEarnings)
		record.OwnerEarnings = big.NewInt(0)
	case record.Master:
		amount = cloneBigInt(record.MasterEarnings)
		record.MasterEarnings = big.NewInt(0)
	default:
		return nil, ErrUnauthorized
	}
	if amount.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRewards, canonical)
	}
	if err := storePromoCode(e.st, record); err != nil {
		return nil, err
	}
	unclaimed, err := e.counter(rewardsUnclaimedKey)
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Sub(unclaimed, amount)
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	if err := e.st.KVPut(rewardsUnclaimedKey, next); err != nil {
		return nil, err
	}

	if err := e.transferPay(e.vault, caller, amount); err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RewardWithdrawn(amount)
		e.metrics.RewardsUnclaimed(next)
	}
	e.emit(events.SaleRewardWithdrawn{Code: canonical, Recipient: caller, Amount: cloneBigInt(amount)})
	return amount, nil
}

// CashPaymentProceeds transfers the payment proceeds exceeding all unclaimed
// reward accruals to the sale owner. The remainder left in the vault keeps
// every outstanding reward claim solvent.
func (e *Engine) CashPaymentProceeds(caller [20]byte) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()
	if caller != e.owner {
		return nil, ErrUnauthorized
	}
	vaultAcc, err := e.st.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	if vaultAcc.BalancePay.Sign() == 0 {
		return nil, ErrNoProceeds
	}
	unclaimed, err := e.counter(rewardsUnclaimedKey)
	if err != nil {
		return nil, err
	}
	available := new(big.Int).Sub(vaultAcc.BalancePay, unclaimed)
	if available.Sign() <= 0 {
		return nil, ErrNoProceeds
	}
	if err := e.transferPay(e.vault, e.owner, available); err != nil {
		return nil, err
	}
	e.emit(events.SaleProceedsCashed{Owner: e.owner, Amount: cloneBigInt(available)})
	return available, nil
}

// CashSaleAsset transfers the unsold sale-asset inventory to the sale owner.
// It is permitted only once the sale end condition holds; units already sold
// stay in the vault for buyer settlement.
func (e *Engine) CashSaleAsset(caller [20]byte) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()
	if caller != e.owner {
		return nil, ErrUnauthorized
	}
	if e.end == nil || !e.end.SaleEnded() {
		return nil, ErrSaleNotEnded
	}
	vaultAcc, err := e.st.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	totalSold, err := e.counter(totalSoldKey)
	if err != nil {
		return nil, err
	}
	unsold := new(big.Int).Sub(vaultAcc.BalanceSale, totalSold)
	if unsold.Sign() <= 0 {
		return nil, ErrNoSaleAsset
	}
	if err := e.transferSale(e.vault, e.owner, unsold); err != nil {
		return nil, err
	}
	e.emit(events.SaleAssetCashed{Owner: e.owner, Amount: cloneBigInt(unsold)})
	return unsold, nil
}
