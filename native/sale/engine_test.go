package sale

import (
	"errors"
	"math/big"
	"testing"

	"launchpad/core/events"
	"launchpad/core/state"
	"launchpad/core/types"
	"launchpad/storage"
)

var (
	testOperator  = newTestAddress(0x01)
	testBuyer     = newTestAddress(0x02)
	testBuyerTwo  = newTestAddress(0x03)
	testOwnerA    = newTestAddress(0x0A)
	testMasterB   = newTestAddress(0x0B)
	testVault     = newTestAddress(0xAA)
	testSaleOwner = newTestAddress(0xEE)
)

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.events = append(r.events, evt)
}

type testHarness struct {
	manager  *state.Manager
	engine   *Engine
	registry *Registry
	ledger   *Ledger
	emitter  *recordingEmitter
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	if err := manager.GrantRole(roleSaleOperator, testOperator[:]); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	emitter := &recordingEmitter{}
	engine := NewEngine()
	engine.SetState(manager)
	engine.SetVault(testVault)
	engine.SetOwner(testSaleOwner)
	engine.SetEmitter(emitter)
	registry := NewRegistry(manager)
	registry.SetEmitter(emitter)
	ledger := NewLedger(manager)
	ledger.SetEmitter(emitter)
	return &testHarness{manager: manager, engine: engine, registry: registry, ledger: ledger, emitter: emitter}
}

func (h *testHarness) fund(t *testing.T, addr [20]byte, pay int64) {
	t.Helper()
	acc := &types.Account{BalancePay: big.NewInt(pay), BalanceSale: big.NewInt(0)}
	if err := h.manager.PutAccount(addr[:], acc); err != nil {
		t.Fatalf("fund account: %v", err)
	}
}

func (h *testHarness) balancePay(t *testing.T, addr [20]byte) *big.Int {
	t.Helper()
	acc, err := h.manager.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return acc.BalancePay
}

func openTier(id string, price, maxTotal, maxPerWallet int64) *Tier {
	return &Tier{
		ID:                     id,
		Price:                  big.NewInt(price),
		MaxTotalPurchasable:    big.NewInt(maxTotal),
		MaxAllocationPerWallet: big.NewInt(maxPerWallet),
		AllowPromoCode:         true,
		AllowWalletPromoCode:   true,
	}
}

func (h *testHarness) setTier(t *testing.T, tier *Tier) {
	t.Helper()
	if err := h.registry.SetTier(testOperator, tier); err != nil {
		t.Fatalf("set tier: %v", err)
	}
}

func TestPurchaseWithPromoCodeSplitsRewards(t *testing.T) {
	h := newTestHarness(t)
	tier := openTier("tier-1", 1000, 1000, 10)
	tier.BonusPercentage = 5
	h.setTier(t, tier)
	h.fund(t, testBuyer, 1_000_000)
	if err := h.ledger.AddPromoCode(testOperator, "LAUNCH20", 20, testOwnerA, testMasterB); err != nil {
		t.Fatalf("add promo code: %v", err)
	}

	receipt, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(3), nil, "LAUNCH20", nil)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// unit price 1000 * 80 / 100 = 800, total cost 2400
	if receipt.UnitPrice.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("unit price = %s, want 800", receipt.UnitPrice)
	}
	if receipt.TotalCost.Cmp(big.NewInt(2400)) != 0 {
		t.Fatalf("total cost = %s, want 2400", receipt.TotalCost)
	}

	record, ok := h.ledger.GetPromoCode("LAUNCH20")
	if !ok {
		t.Fatal("promo code record missing")
	}
	// owner share = 2400 * (8 + 5) / 100, master share = 2400 * 2 / 100
	if record.OwnerEarnings.Cmp(big.NewInt(312)) != 0 {
		t.Fatalf("owner earnings = %s, want 312", record.OwnerEarnings)
	}
	if record.MasterEarnings.Cmp(big.NewInt(48)) != 0 {
		t.Fatalf("master earnings = %s, want 48", record.MasterEarnings)
	}
	if record.TotalPurchased.Cmp(big.NewInt(2400)) != 0 {
		t.Fatalf("total purchased = %s, want 2400", record.TotalPurchased)
	}

	purchased, err := h.engine.PurchasedAmount("tier-1", testBuyer)
	if err != nil {
		t.Fatalf("purchased amount: %v", err)
	}
	if purchased.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("purchased = %s, want 3", purchased)
	}
	unclaimed, err := h.engine.TotalRewardsUnclaimed()
	if err != nil {
		t.Fatalf("unclaimed: %v", err)
	}
	if unclaimed.Cmp(big.NewInt(360)) != 0 {
		t.Fatalf("unclaimed = %s, want 360", unclaimed)
	}
	if got := h.balancePay(t, testVault); got.Cmp(big.NewInt(2400)) != 0 {
		t.Fatalf("vault balance = %s, want 2400", got)
	}
	if got := h.balancePay(t, testBuyer); got.Cmp(big.NewInt(997_600)) != 0 {
		t.Fatalf("buyer balance = %s, want 997600", got)
	}
}

func TestMaxBonusTierStaysSolvent(t *testing.T) {
	h := newTestHarness(t)
	tier := openTier("tier-1", 1000, 1000, 100)
	tier.BonusPercentage = 90
	h.setTier(t, tier)
	h.fund(t, testBuyer, 1_000_000)
	if err := h.ledger.AddPromoCode(testOperator, "MAX", 20, testOwnerA, testMasterB); err != nil {
		t.Fatalf("add promo code: %v", err)
	}

	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(3), nil, "MAX", nil); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// owner (8+90)% of 2400 = 2352, master 2% = 48: the entire cost, no more
	unclaimed, err := h.engine.TotalRewardsUnclaimed()
	if err != nil {
		t.Fatalf("unclaimed: %v", err)
	}
	vault := h.balancePay(t, testVault)
	if vault.Cmp(unclaimed) < 0 {
		t.Fatalf("solvency violated: vault %s < unclaimed %s", vault, unclaimed)
	}
	if unclaimed.Cmp(big.NewInt(2400)) != 0 {
		t.Fatalf("unclaimed = %s, want 2400", unclaimed)
	}

	// every accrued reward must be withdrawable from the vault
	if _, err := h.engine.WithdrawReward(testOwnerA, "MAX"); err != nil {
		t.Fatalf("owner withdraw: %v", err)
	}
	if _, err := h.engine.WithdrawReward(testMasterB, "MAX"); err != nil {
		t.Fatalf("master withdraw: %v", err)
	}
	if got := h.balancePay(t, testVault); got.Sign() != 0 {
		t.Fatalf("vault = %s, want fully drained", got)
	}
}

func TestOversizedStoredBonusClampedToPurchaseCost(t *testing.T) {
	h := newTestHarness(t)
	h.fund(t, testBuyer, 1_000_000)
	if err := h.ledger.AddPromoCode(testOperator, "ONE", 1, testOwnerA, testMasterB); err != nil {
		t.Fatalf("add promo code: %v", err)
	}
	// a tier persisted before the reward budget narrowed can carry a bonus
	// the registry no longer accepts
	stale := &Tier{
		ID:                     "tier-stale",
		Price:                  big.NewInt(1000),
		MaxTotalPurchasable:    big.NewInt(1000),
		MaxAllocationPerWallet: big.NewInt(100),
		BonusPercentage:        100,
		AllowPromoCode:         true,
	}
	if err := h.manager.KVPut(tierKey(stale.ID), stale); err != nil {
		t.Fatalf("store stale tier: %v", err)
	}

	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-stale", big.NewInt(1), nil, "ONE", nil); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// cost 990; owner share clamped to 98% = 970, master 2% = 19
	record, ok := h.ledger.GetPromoCode("ONE")
	if !ok {
		t.Fatal("promo record missing")
	}
	if record.OwnerEarnings.Cmp(big.NewInt(970)) != 0 {
		t.Fatalf("owner earnings = %s, want clamped 970", record.OwnerEarnings)
	}
	unclaimed, err := h.engine.TotalRewardsUnclaimed()
	if err != nil {
		t.Fatalf("unclaimed: %v", err)
	}
	vault := h.balancePay(t, testVault)
	if vault.Cmp(unclaimed) < 0 {
		t.Fatalf("solvency violated: vault %s < unclaimed %s", vault, unclaimed)
	}
	if _, err := h.engine.WithdrawReward(testOwnerA, "ONE"); err != nil {
		t.Fatalf("owner withdraw: %v", err)
	}
	if _, err := h.engine.WithdrawReward(testMasterB, "ONE"); err != nil {
		t.Fatalf("master withdraw: %v", err)
	}
}

func TestPurchasePreconditions(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 100, 1000, 10))
	h.fund(t, testBuyer, 10_000)

	if _, err := h.engine.Purchase(testBuyer, "missing", big.NewInt(1), nil, nil); !errors.Is(err, ErrTierNotFound) {
		t.Fatalf("unknown tier: err = %v, want ErrTierNotFound", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(0), nil, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-1", nil, nil, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1000), nil, nil); !errors.Is(err, ErrWalletCapExceeded) {
		t.Fatalf("wallet cap: err = %v, want ErrWalletCapExceeded", err)
	}
}

func TestHaltStopsAndUnhaltRestoresPurchasing(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 100, 1000, 10))
	h.fund(t, testBuyer, 10_000)

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(2), nil, nil); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if err := h.registry.UpdateIsHalt(testOperator, "tier-1", true); err != nil {
		t.Fatalf("halt: %v", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil); !errors.Is(err, ErrTierHalted) {
		t.Fatalf("halted purchase: err = %v, want ErrTierHalted", err)
	}
	if err := h.registry.UpdateIsHalt(testOperator, "tier-1", false); err != nil {
		t.Fatalf("unhalt: %v", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil); err != nil {
		t.Fatalf("post-unhalt purchase: %v", err)
	}
	purchased, err := h.engine.PurchasedAmount("tier-1", testBuyer)
	if err != nil {
		t.Fatalf("purchased amount: %v", err)
	}
	if purchased.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("purchased = %s, want 3 (prior counters intact)", purchased)
	}
}

func TestZeroWalletAllocationRejectsEveryPurchase(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-0", 100, 1000, 0))
	h.fund(t, testBuyer, 10_000)

	if _, err := h.engine.Purchase(testBuyer, "tier-0", big.NewInt(1), nil, nil); !errors.Is(err, ErrWalletCapExceeded) {
		t.Fatalf("err = %v, want ErrWalletCapExceeded", err)
	}
}

func TestTierCapSharedAcrossWallets(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 100, 10, 10))
	h.fund(t, testBuyer, 10_000)
	h.fund(t, testBuyerTwo, 10_000)

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(7), nil, nil); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := h.engine.Purchase(testBuyerTwo, "tier-1", big.NewInt(4), nil, nil); !errors.Is(err, ErrTierCapExceeded) {
		t.Fatalf("err = %v, want ErrTierCapExceeded", err)
	}
	if _, err := h.engine.Purchase(testBuyerTwo, "tier-1", big.NewInt(3), nil, nil); err != nil {
		t.Fatalf("fitting purchase: %v", err)
	}
	sold, err := h.engine.UnitsSold("tier-1")
	if err != nil {
		t.Fatalf("units sold: %v", err)
	}
	if sold.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("sold = %s, want 10", sold)
	}
}

func TestWhitelistedTierRequiresProofAndAllocation(t *testing.T) {
	h := newTestHarness(t)
	h.fund(t, testBuyer, 10_000)
	h.fund(t, testBuyerTwo, 10_000)

	allocation := big.NewInt(5)
	otherAllocation := big.NewInt(2)
	leaves := [][32]byte{
		allocationLeaf(testBuyer, allocation),
		allocationLeaf(testBuyerTwo, otherAllocation),
	}
	levels := buildTestLevels(leaves)
	root := levels[len(levels)-1][0]

	tier := openTier("tier-wl", 100, 1000, 100)
	tier.WhitelistRoot = root
	h.setTier(t, tier)

	proof := testProofFor(levels, 0)
	if _, err := h.engine.Purchase(testBuyer, "tier-wl", big.NewInt(3), proof, allocation); err != nil {
		t.Fatalf("whitelisted purchase: %v", err)
	}
	// remaining allocation is 2, buying 3 more exceeds it
	if _, err := h.engine.Purchase(testBuyer, "tier-wl", big.NewInt(3), proof, allocation); !errors.Is(err, ErrAllocationExceeded) {
		t.Fatalf("err = %v, want ErrAllocationExceeded", err)
	}
	if _, err := h.engine.Purchase(testBuyer, "tier-wl", big.NewInt(2), proof, allocation); err != nil {
		t.Fatalf("exact allocation purchase: %v", err)
	}

	wrongProof := testProofFor(levels, 1)
	if _, err := h.engine.Purchase(testBuyer, "tier-wl", big.NewInt(1), wrongProof, allocation); !errors.Is(err, ErrWhitelistProof) {
		t.Fatalf("err = %v, want ErrWhitelistProof", err)
	}
	if _, err := h.engine.Purchase(testBuyerTwo, "tier-wl", big.NewInt(1), nil, nil); !errors.Is(err, ErrWhitelistProof) {
		t.Fatalf("missing allocation: err = %v, want ErrWhitelistProof", err)
	}
}

func TestDiscountedUnitPriceTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		price    int64
		discount uint32
		want     int64
	}{
		{1, 33, 0},
		{100, 33, 67},
		{1000, 20, 800},
		{3, 50, 1},
		{999, 0, 999},
	}
	for _, tc := range cases {
		got := DiscountedUnitPrice(big.NewInt(tc.price), tc.discount)
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("DiscountedUnitPrice(%d, %d) = %s, want %d", tc.price, tc.discount, got, tc.want)
		}
	}
}

func TestWalletPromoCodeLifecycle(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 1000, 1000, 100))
	h.fund(t, testBuyer, 1_000_000)
	h.fund(t, testBuyerTwo, 1_000_000)

	walletCode := "0x" + hexOf(testBuyer)

	// ineligible until the encoded wallet has purchased somewhere
	if _, err := h.engine.PurchaseWithCode(testBuyerTwo, "tier-1", big.NewInt(1), nil, walletCode, nil); !errors.Is(err, ErrPromoCodeIneligible) {
		t.Fatalf("err = %v, want ErrPromoCodeIneligible", err)
	}

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(2), nil, nil); err != nil {
		t.Fatalf("qualifying purchase: %v", err)
	}

	receipt, err := h.engine.PurchaseWithCode(testBuyerTwo, "tier-1", big.NewInt(4), nil, walletCode, nil)
	if err != nil {
		t.Fatalf("wallet-code purchase: %v", err)
	}
	// wallet promo discount 10%: unit 900, cost 3600, owner share 360
	if receipt.TotalCost.Cmp(big.NewInt(3600)) != 0 {
		t.Fatalf("total cost = %s, want 3600", receipt.TotalCost)
	}
	record, ok := h.ledger.GetPromoCode(walletCode)
	if !ok {
		t.Fatal("wallet promo record not auto-populated")
	}
	if record.Owner != testBuyer {
		t.Fatalf("record owner = %x, want encoded wallet", record.Owner)
	}
	if record.OwnerEarnings.Cmp(big.NewInt(360)) != 0 {
		t.Fatalf("owner earnings = %s, want 360", record.OwnerEarnings)
	}
	if record.MasterEarnings.Sign() != 0 {
		t.Fatalf("master earnings = %s, want 0", record.MasterEarnings)
	}

	// self-referral is not blocked
	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(1), nil, walletCode, nil); err != nil {
		t.Fatalf("self-referral purchase: %v", err)
	}
}

func TestPromoCodeGates(t *testing.T) {
	h := newTestHarness(t)
	tier := openTier("tier-1", 100, 1000, 100)
	tier.AllowPromoCode = false
	tier.AllowWalletPromoCode = false
	h.setTier(t, tier)
	h.fund(t, testBuyer, 10_000)
	if err := h.ledger.AddPromoCode(testOperator, "CODE", 10, testOwnerA, testMasterB); err != nil {
		t.Fatalf("add promo code: %v", err)
	}

	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(1), nil, "CODE", nil); !errors.Is(err, ErrPromoCodeNotAllowed) {
		t.Fatalf("named code: err = %v, want ErrPromoCodeNotAllowed", err)
	}
	walletCode := "0x" + hexOf(testOwnerA)
	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(1), nil, walletCode, nil); !errors.Is(err, ErrPromoCodeNotAllowed) {
		t.Fatalf("wallet code: err = %v, want ErrPromoCodeNotAllowed", err)
	}
	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(1), nil, "  ", nil); !errors.Is(err, ErrInvalidPromoCode) {
		t.Fatalf("blank code: err = %v, want ErrInvalidPromoCode", err)
	}

	tier.AllowPromoCode = true
	h.setTier(t, tier)
	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(1), nil, "UNKNOWN", nil); !errors.Is(err, ErrInvalidPromoCode) {
		t.Fatalf("unknown code: err = %v, want ErrInvalidPromoCode", err)
	}
}

func TestInsufficientBalanceRejectedBeforeMutation(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 1000, 1000, 100))
	h.fund(t, testBuyer, 500)

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	purchased, err := h.engine.PurchasedAmount("tier-1", testBuyer)
	if err != nil {
		t.Fatalf("purchased amount: %v", err)
	}
	if purchased.Sign() != 0 {
		t.Fatalf("purchased = %s, want 0 after failed purchase", purchased)
	}
	sold, err := h.engine.UnitsSold("tier-1")
	if err != nil {
		t.Fatalf("units sold: %v", err)
	}
	if sold.Sign() != 0 {
		t.Fatalf("sold = %s, want 0 after failed purchase", sold)
	}
}

type reentrantState struct {
	*state.Manager
	engine    *Engine
	attempted bool
	nestedErr error
}

func (r *reentrantState) PutAccount(addr []byte, account *types.Account) error {
	if !r.attempted {
		r.attempted = true
		_, r.nestedErr = r.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil)
	}
	return r.Manager.PutAccount(addr, account)
}

func TestReentrantPurchaseFailsImmediately(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 100, 1000, 100))
	h.fund(t, testBuyer, 10_000)

	wrapped := &reentrantState{Manager: h.manager, engine: h.engine}
	h.engine.SetState(wrapped)

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(2), nil, nil); err != nil {
		t.Fatalf("outer purchase: %v", err)
	}
	if !wrapped.attempted {
		t.Fatal("nested purchase was never attempted")
	}
	if !errors.Is(wrapped.nestedErr, ErrReentrantCall) {
		t.Fatalf("nested err = %v, want ErrReentrantCall", wrapped.nestedErr)
	}
	purchased, err := h.engine.PurchasedAmount("tier-1", testBuyer)
	if err != nil {
		t.Fatalf("purchased amount: %v", err)
	}
	if purchased.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("purchased = %s, want 2 (no double count)", purchased)
	}
}

type pausedView struct{ paused bool }

func (p pausedView) IsPaused(module string) bool { return p.paused && module == moduleName }

func TestModulePauseRejectsPurchases(t *testing.T) {
	h := newTestHarness(t)
	h.setTier(t, openTier("tier-1", 100, 1000, 100))
	h.fund(t, testBuyer, 10_000)
	h.engine.SetPauses(pausedView{paused: true})

	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil); err == nil {
		t.Fatal("expected paused module to reject purchase")
	}
	h.engine.SetPauses(pausedView{})
	if _, err := h.engine.Purchase(testBuyer, "tier-1", big.NewInt(1), nil, nil); err != nil {
		t.Fatalf("post-resume purchase: %v", err)
	}
}

func TestRewardAccountingIdentity(t *testing.T) {
	h := newTestHarness(t)
	tier := openTier("tier-1", 1000, 1000, 100)
	tier.BonusPercentage = 5
	h.setTier(t, tier)
	h.fund(t, testBuyer, 1_000_000)
	h.fund(t, testBuyerTwo, 1_000_000)
	if err := h.ledger.AddPromoCode(testOperator, "A", 20, testOwnerA, testMasterB); err != nil {
		t.Fatalf("add code A: %v", err)
	}
	if err := h.ledger.AddPromoCode(testOperator, "B", 10, testMasterB, testOwnerA); err != nil {
		t.Fatalf("add code B: %v", err)
	}

	if _, err := h.engine.PurchaseWithCode(testBuyer, "tier-1", big.NewInt(3), nil, "A", nil); err != nil {
		t.Fatalf("purchase A: %v", err)
	}
	if _, err := h.engine.PurchaseWithCode(testBuyerTwo, "tier-1", big.NewInt(7), nil, "B", nil); err != nil {
		t.Fatalf("purchase B: %v", err)
	}
	h.assertRewardIdentity(t, []string{"A", "B"})

	if _, err := h.engine.WithdrawReward(testOwnerA, "A"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	h.assertRewardIdentity(t, []string{"A", "B"})
}

func (h *testHarness) assertRewardIdentity(t *testing.T, codes []string) {
	t.Helper()
	sum := big.NewInt(0)
	for _, code := range codes {
		record, ok := h.ledger.GetPromoCode(code)
		if !ok {
			continue
		}
		sum.Add(sum, record.OwnerEarnings)
		sum.Add(sum, record.MasterEarnings)
	}
	unclaimed, err := h.engine.TotalRewardsUnclaimed()
	if err != nil {
		t.Fatalf("unclaimed: %v", err)
	}
	if unclaimed.Cmp(sum) != 0 {
		t.Fatalf("unclaimed = %s, sum of earnings = %s", unclaimed, sum)
	}
	vault := h.balancePay(t, testVault)
	if vault.Cmp(unclaimed) < 0 {
		t.Fatalf("solvency violated: vault %s < unclaimed %s", vault, unclaimed)
	}
}
