package sale

import (
	"fmt"
	"math/big"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

const (
	roleSaleAdmin    = "ROLE_SALE_ADMIN"
	roleSaleOperator = "ROLE_SALE_OPERATOR"
	moduleName       = "sale"
)

type registryState interface {
	HasRole(role string, addr []byte) bool
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Registry manages persistence and retrieval of tier configurations. All
// mutating operations require the caller to hold the sale operator role.
type Registry struct {
	st      registryState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	params  RewardParams
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}, params: DefaultRewardParams()}
}

// SetRewardParams replaces the referral percentages the registry validates
// tier bonuses against. The engine must be configured with the same params.
func (r *Registry) SetRewardParams(p RewardParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.params = p
	return nil
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

func (r *Registry) requireOperator(caller [20]byte) error {
	if r == nil || r.st == nil {
		return errNilState
	}
	if !r.st.HasRole(roleSaleOperator, caller[:]) {
		return ErrUnauthorized
	}
	return nil
}

// SetTier creates or fully overwrites a tier configuration. Re-setting an
// existing identifier replaces every field but never duplicates the id in the
// tier enumeration.
func (r *Registry) SetTier(caller [20]byte, t *Tier) error {
	if err := r.requireOperator(caller); err != nil {
		return err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	sanitized, err := SanitizeTier(t)
	if err != nil {
		return err
	}
	if sanitized.BonusPercentage > r.params.MaxBonusPct() {
		return fmt.Errorf("%w: bonus percentage %d exceeds reward budget of %d",
			ErrInvalidTier, sanitized.BonusPercentage, r.params.MaxBonusPct())
	}
	if err := r.st.KVPut(tierKey(sanitized.ID), sanitized); err != nil {
		return err
	}
	if err := r.st.KVAppend(tierIndexKey, []byte(sanitized.ID)); err != nil {
		return err
	}
	r.emit(events.SaleTierUpdated{TierID: sanitized.ID, Price: cloneBigInt(sanitized.Price), Halted: sanitized.Halted})
	return nil
}

// GetTier retrieves a tier by its identifier.
func (r *Registry) GetTier(id string) (*Tier, bool) {
	if r == nil || r.st == nil {
		return nil, false
	}
	out := new(Tier)
	ok, err := r.st.KVGet(tierKey(id), out)
	if err != nil || !ok {
		return nil, false
	}
	return out, true
}

// TierIDs returns every tier identifier ever registered, in creation order.
func (r *Registry) TierIDs() ([]string, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	var raw [][]byte
	if err := r.st.KVGetList(tierIndexKey, &raw); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, b := range raw {
		ids = append(ids, string(b))
	}
	return ids, nil
}

func (r *Registry) mutateTier(caller [20]byte, id string, mutate func(*Tier)) error {
	if err := r.requireOperator(caller); err != nil {
		return err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	tier, ok := r.GetTier(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTierNotFound, id)
	}
	mutate(tier)
	if err := r.st.KVPut(tierKey(tier.ID), tier); err != nil {
		return err
	}
	r.emit(events.SaleTierUpdated{TierID: tier.ID, Price: cloneBigInt(tier.Price), Halted: tier.Halted})
	return nil
}

// UpdateIsHalt toggles the manual circuit-breaker for a single tier.
func (r *Registry) UpdateIsHalt(caller [20]byte, id string, halted bool) error {
	return r.mutateTier(caller, id, func(t *Tier) {
		t.Halted = halted
	})
}

// UpdateWhitelistRoot replaces the Merkle root gating tier membership. An
// all-zero root opens the tier to any wallet.
func (r *Registry) UpdateWhitelistRoot(caller [20]byte, id string, root [32]byte) error {
	return r.mutateTier(caller, id, func(t *Tier) {
		t.WhitelistRoot = root
	})
}

// UpdateMaxTotalPurchasable replaces the first-come-first-served ceiling on
// cumulative units sold in the tier.
func (r *Registry) UpdateMaxTotalPurchasable(caller [20]byte, id string, cap *big.Int) error {
	if cap == nil || cap.Sign() < 0 {
		return fmt.Errorf("%w: tier cap must be non-negative", ErrInvalidTier)
	}
	return r.mutateTier(caller, id, func(t *Tier) {
		t.MaxTotalPurchasable = cloneBigInt(cap)
	})
}

// HaltAllTiers halts every registered tier.
func (r *Registry) HaltAllTiers(caller [20]byte) error {
	return r.setHaltAll(caller, true)
}

// UnhaltAllTiers lifts the halt flag from every registered tier.
func (r *Registry) UnhaltAllTiers(caller [20]byte) error {
	return r.setHaltAll(caller, false)
}

func (r *Registry) setHaltAll(caller [20]byte, halted bool) error {
	if err := r.requireOperator(caller); err != nil {
		return err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	ids, err := r.TierIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		tier, ok := r.GetTier(id)
		if !ok {
			continue
		}
		if tier.Halted == halted {
			continue
		}
		tier.Halted = halted
		if err := r.st.KVPut(tierKey(tier.ID), tier); err != nil {
			return err
		}
		r.emit(events.SaleTierUpdated{TierID: tier.ID, Price: cloneBigInt(tier.Price), Halted: tier.Halted})
	}
	return nil
}

func (r *Registry) emit(event events.Event) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(event)
}
