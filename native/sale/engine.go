package sale

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
)

type engineState interface {
	HasRole(role string, addr []byte) bool
	GrantRole(role string, addr []byte) error
	RevokeRole(role string, addr []byte) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVGetList(key []byte, out interface{}) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// EndCondition reports whether the sale's end condition holds. It is supplied
// by the surrounding funding lifecycle, which is outside this module.
type EndCondition interface {
	SaleEnded() bool
}

// Metrics receives purchase and withdrawal outcomes for monitoring. A nil
// metrics sink disables recording.
type Metrics interface {
	PurchaseCompleted(tierID string, promo bool)
	PurchaseFailed(reason string)
	RewardWithdrawn(amount *big.Int)
	RewardsUnclaimed(total *big.Int)
}

// Receipt summarises a settled purchase.
type Receipt struct {
	TierID    string
	Buyer     [20]byte
	Amount    *big.Int
	UnitPrice *big.Int
	TotalCost *big.Int
	PromoCode string
	Discount  uint32
}

// Engine executes purchases against the tier registry and promo ledger state,
// and custodies the collected funds. Every state-mutating entry point holds a
// non-blocking reentrancy lock for its full duration: a nested call made from
// within a payment callback fails immediately instead of double-counting.
type Engine struct {
	st      engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	metrics Metrics
	params  RewardParams
	vault   [20]byte
	owner   [20]byte
	end     EndCondition
	locked  bool
}

// NewEngine creates a purchase engine with default reward parameters and a
// no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultRewardParams(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(st engineState) { e.st = st }

// SetVault configures the address custodying collected payment and the unsold
// sale-asset inventory.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetOwner configures the sale owner entitled to cash out proceeds.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetEndCondition configures the external sale end collaborator consulted by
// CashSaleAsset.
func (e *Engine) SetEndCondition(end EndCondition) { e.end = end }

// SetPauses configures the governance pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetMetrics configures the metrics sink. Passing nil disables recording.
func (e *Engine) SetMetrics(m Metrics) { e.metrics = m }

// SetRewardParams replaces the referral percentages after validation.
func (e *Engine) SetRewardParams(p RewardParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// RewardParams returns the referral percentages in effect.
func (e *Engine) RewardParams() RewardParams { return e.params }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) enter() error {
	if e.locked {
		return ErrReentrantCall
	}
	e.locked = true
	return nil
}

func (e *Engine) exit() { e.locked = false }

// DiscountedUnitPrice applies a percentage discount to a unit price with
// integer division truncated toward zero. The truncation direction is load
// bearing for financial parity and must not be changed to rounding.
func DiscountedUnitPrice(price *big.Int, discountPct uint32) *big.Int {
	unit := new(big.Int).Mul(cloneBigInt(price), big.NewInt(int64(100-discountPct)))
	return unit.Quo(unit, big.NewInt(100))
}

func percentageOf(total *big.Int, pct uint32) *big.Int {
	v := new(big.Int).Mul(cloneBigInt(total), big.NewInt(int64(pct)))
	return v.Quo(v, big.NewInt(100))
}

func (e *Engine) counter(key []byte) (*big.Int, error) {
	value := new(big.Int)
	found, err := e.st.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (e *Engine) loadTier(id string) (*Tier, error) {
	tier := new(Tier)
	found, err := e.st.KVGet(tierKey(id), tier)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTierNotFound, id)
	}
	return tier, nil
}

// PurchasedAmount returns the cumulative units the wallet bought in the tier.
func (e *Engine) PurchasedAmount(tierID string, wallet [20]byte) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	return e.counter(purchasedKey(tierID, wallet))
}

// UnitsSold returns the cumulative units sold in the tier.
func (e *Engine) UnitsSold(tierID string) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	return e.counter(soldKey(tierID))
}

// TotalUnitsSold returns the cumulative units sold across all tiers.
func (e *Engine) TotalUnitsSold() (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	return e.counter(totalSoldKey)
}

// TotalRewardsUnclaimed returns the payment-asset units owed across all promo
// codes. The held payment balance must always cover this total.
func (e *Engine) TotalRewardsUnclaimed() (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	return e.counter(rewardsUnclaimedKey)
}

// Purchase settles a promo-free purchase for the caller.
func (e *Engine) Purchase(caller [20]byte, tierID string, amount *big.Int, proof [][32]byte, allocation *big.Int) (*Receipt, error) {
	receipt, err := e.purchase(caller, tierID, amount, proof, allocation, "")
	e.recordPurchaseOutcome(tierID, "", err)
	return receipt, err
}

// PurchaseWithCode settles a purchase with a promo code applied. The code may
// be a named ledger code or a wallet address used as a self-describing code.
func (e *Engine) PurchaseWithCode(caller [20]byte, tierID string, amount *big.Int, proof [][32]byte, code string, allocation *big.Int) (*Receipt, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		err := fmt.Errorf("%w: code required", ErrInvalidPromoCode)
		e.recordPurchaseOutcome(tierID, code, err)
		return nil, err
	}
	receipt, err := e.purchase(caller, tierID, amount, proof, allocation, trimmed)
	e.recordPurchaseOutcome(tierID, trimmed, err)
	return receipt, err
}

func (e *Engine) purchase(caller [20]byte, tierID string, amount *big.Int, proof [][32]byte, allocation *big.Int, code string) (*Receipt, error) {
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

	tier, err := e.loadTier(tierID)
	if err != nil {
		return nil, err
	}
	if tier.Halted {
		return nil, fmt.Errorf("%w: %s", ErrTierHalted, tier.ID)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	resolved, err := e.resolvePurchaseCode(tier, code)
	if err != nil {
		return nil, err
	}

	purchased, err := e.counter(purchasedKey(tier.ID, caller))
	if err != nil {
		return nil, err
	}
	nextPurchased := new(big.Int).Add(purchased, amount)
	if !tier.Open() {
		if allocation == nil || !VerifyAllocation(tier.WhitelistRoot, caller, allocation, proof) {
			return nil, ErrWhitelistProof
		}
		if nextPurchased.Cmp(allocation) > 0 {
			return nil, ErrAllocationExceeded
		}
	}
	if nextPurchased.Cmp(tier.MaxAllocationPerWallet) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrWalletCapExceeded, tier.ID)
	}
	sold, err := e.counter(soldKey(tier.ID))
	if err != nil {
		return nil, err
	}
	nextSold := new(big.Int).Add(sold, amount)
	if nextSold.Cmp(tier.MaxTotalPurchasable) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrTierCapExceeded, tier.ID)
	}

	unitPrice := DiscountedUnitPrice(tier.Price, resolved.discount())
	totalCost := new(big.Int).Mul(cloneBigInt(amount), unitPrice)

	buyer, err := e.st.GetAccount(caller[:])
	if err != nil {
		return nil, err
	}
	if buyer.BalancePay == nil || buyer.BalancePay.Cmp(totalCost) < 0 {
		return nil, ErrInsufficientBalance
	}

	// Counters and reward accruals commit before the payment transfer; the
	// transfer is the last action of the purchase.
	if err := e.st.KVPut(purchasedKey(tier.ID, caller), nextPurchased); err != nil {
		return nil, err
	}
	if err := e.st.KVPut(soldKey(tier.ID), nextSold); err != nil {
		return nil, err
	}
	totalSold, err := e.counter(totalSoldKey)
	if err != nil {
		return nil, err
	}
	if err := e.st.KVPut(totalSoldKey, new(big.Int).Add(totalSold, amount)); err != nil {
		return nil, err
	}
	if err := e.accrueRewards(tier, resolved, totalCost); err != nil {
		return nil, err
	}

	if err := e.transferPay(caller, e.vault, totalCost); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		TierID:    tier.ID,
		Buyer:     caller,
		Amount:    cloneBigInt(amount),
		UnitPrice: unitPrice,
		TotalCost: totalCost,
		PromoCode: resolved.code,
		Discount:  resolved.discount(),
	}
	e.emit(events.SalePurchaseCompleted{
		TierID:    receipt.TierID,
		Buyer:     caller,
		Amount:    cloneBigInt(receipt.Amount),
		TotalCost: cloneBigInt(receipt.TotalCost),
		PromoCode: receipt.PromoCode,
		Discount:  receipt.Discount,
	})
	return receipt, nil
}

func (rc *resolvedCode) discount() uint32 {
	if rc == nil {
		return 0
	}
	switch rc.kind {
	case codeKindWallet:
		return rc.walletDiscount
	case codeKindNamed:
		if rc.record == nil {
			return 0
		}
		return rc.record.DiscountPercentage
	default:
		return 0
	}
}

// resolvePurchaseCode classifies the promo code argument once at entry. An
// empty code resolves to the promo-free path.
func (e *Engine) resolvePurchaseCode(tier *Tier, code string) (*resolvedCode, error) {
	if code == "" {
		return &resolvedCode{kind: codeKindNone}, nil
	}
	canonical := canonicalCode(code)
	if isWalletCode(canonical) {
		if !tier.AllowWalletPromoCode {
			return nil, fmt.Errorf("%w: %s", ErrPromoCodeNotAllowed, tier.ID)
		}
		wallet := [20]byte(common.HexToAddress(canonical))
		eligible, err := e.walletCodeEligible(wallet)
		if err != nil {
			return nil, err
		}
		if !eligible {
			return nil, fmt.Errorf("%w: %s", ErrPromoCodeIneligible, canonical)
		}
		return &resolvedCode{
			kind:           codeKindWallet,
			code:           canonical,
			wallet:         wallet,
			walletDiscount: e.params.WalletPromoPct,
		}, nil
	}
	if !tier.AllowPromoCode {
		return nil, fmt.Errorf("%w: %s", ErrPromoCodeNotAllowed, tier.ID)
	}
	record, found, err := loadPromoCode(e.st, canonical)
	if err != nil {
		return nil, err
	}
	if !found || record.DiscountPercentage == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, canonical)
	}
	return &resolvedCode{kind: codeKindNamed, code: canonical, record: record}, nil
}

// walletCodeEligible reports whether the encoded wallet has a strictly
// positive purchase count in at least one tier with a nonzero price.
func (e *Engine) walletCodeEligible(wallet [20]byte) (bool, error) {
	var raw [][]byte
	if err := e.st.KVGetList(tierIndexKey, &raw); err != nil {
		return false, err
	}
	for _, b := range raw {
		id := string(b)
		tier, err := e.loadTier(id)
		if errors.Is(err, ErrTierNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		if tier.Price == nil || tier.Price.Sign() <= 0 {
			continue
		}
		purchased, err := e.counter(purchasedKey(id, wallet))
		if err != nil {
			return false, err
		}
		if purchased.Sign() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// accrueRewards credits the referral split for the purchase and bumps the
// unclaimed total by exactly the amount credited.
func (e *Engine) accrueRewards(tier *Tier, resolved *resolvedCode, totalCost *big.Int) error {
	if resolved == nil || resolved.kind == codeKindNone {
		return nil
	}
	credit := big.NewInt(0)
	switch resolved.kind {
	case codeKindWallet:
		record, found, err := loadPromoCode(e.st, resolved.code)
		if err != nil {
			return err
		}
		if !found {
			record = &PromoCode{
				Code:               resolved.code,
				DiscountPercentage: e.params.WalletPromoPct,
				Owner:              resolved.wallet,
			}
			record.normalize()
		}
		ownerShare := percentageOf(totalCost, e.params.WalletPromoPct)
		record.OwnerEarnings.Add(record.OwnerEarnings, ownerShare)
		record.TotalPurchased.Add(record.TotalPurchased, totalCost)
		if err := storePromoCode(e.st, record); err != nil {
			return err
		}
		credit = ownerShare
	case codeKindNamed:
		record := resolved.record
		ownerPct := e.params.BaseOwnerPct + tier.BonusPercentage
		// A tier persisted under a wider reward budget must not credit more
		// than the purchase paid into the vault.
		if ownerPct+e.params.MasterOwnerPct > 100 {
			ownerPct = 100 - e.params.MasterOwnerPct
		}
		ownerShare := percentageOf(totalCost, ownerPct)
		masterShare := percentageOf(totalCost, e.params.MasterOwnerPct)
		record.OwnerEarnings.Add(record.OwnerEarnings, ownerShare)
		record.MasterEarnings.Add(record.MasterEarnings, masterShare)
		record.TotalPurchased.Add(record.TotalPurchased, totalCost)
		if err := storePromoCode(e.st, record); err != nil {
			return err
		}
		credit = new(big.Int).Add(ownerShare, masterShare)
	}
	if credit.Sign() == 0 {
		return nil
	}
	unclaimed, err := e.counter(rewardsUnclaimedKey)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(unclaimed, credit)
	if err := e.st.KVPut(rewardsUnclaimedKey, next); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RewardsUnclaimed(next)
	}
	return nil
}

func (e *Engine) transferPay(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("sale: negative transfer amount")
	}
	fromAcc, err := e.st.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.st.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.BalancePay.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.BalancePay = new(big.Int).Sub(fromAcc.BalancePay, amt)
	toAcc.BalancePay = new(big.Int).Add(toAcc.BalancePay, amt)
	if err := e.st.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.st.PutAccount(to[:], toAcc)
}

func (e *Engine) transferSale(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("sale: negative transfer amount")
	}
	fromAcc, err := e.st.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.st.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.BalanceSale.Cmp(amt) < 0 {
		return ErrNoSaleAsset
	}
	fromAcc.BalanceSale = new(big.Int).Sub(fromAcc.BalanceSale, amt)
	toAcc.BalanceSale = new(big.Int).Add(toAcc.BalanceSale, amt)
	if err := e.st.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.st.PutAccount(to[:], toAcc)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalancePay: big.NewInt(0), BalanceSale: big.NewInt(0)}
	}
	if acc.BalancePay == nil {
		acc.BalancePay = big.NewInt(0)
	}
	if acc.BalanceSale == nil {
		acc.BalanceSale = big.NewInt(0)
	}
	return acc
}

// Summary aggregates sale-wide counters and vault balances for reporting.
func (e *Engine) Summary() (*Summary, error) {
	if e == nil || e.st == nil {
		return nil, errNilState
	}
	totalSold, err := e.counter(totalSoldKey)
	if err != nil {
		return nil, err
	}
	unclaimed, err := e.counter(rewardsUnclaimedKey)
	if err != nil {
		return nil, err
	}
	vaultAcc, err := e.st.GetAccount(e.vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	summary := &Summary{
		TotalUnitsSold:        totalSold,
		TotalRewardsUnclaimed: unclaimed,
		VaultPaymentBalance:   cloneBigInt(vaultAcc.BalancePay),
		VaultSaleAssetBalance: cloneBigInt(vaultAcc.BalanceSale),
		UnitsSoldByTier:       make(map[string]*big.Int),
	}
	var raw [][]byte
	if err := e.st.KVGetList(tierIndexKey, &raw); err != nil {
		return nil, err
	}
	for _, b := range raw {
		id := string(b)
		sold, err := e.counter(soldKey(id))
		if err != nil {
			return nil, err
		}
		summary.UnitsSoldByTier[id] = sold
	}
	return summary, nil
}

func (e *Engine) recordPurchaseOutcome(tierID, code string, err error) {
	if e == nil || e.metrics == nil {
		return
	}
	if err == nil {
		e.metrics.PurchaseCompleted(tierID, code != "")
		return
	}
	e.metrics.PurchaseFailed(failureReason(err))
}
