package sale

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

type ledgerState interface {
	HasRole(role string, addr []byte) bool
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Ledger manages persistence of named promo codes. Wallet promo codes are not
// registered here; they are auto-populated by the engine on first use.
type Ledger struct {
	st      ledgerState
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewLedger creates a promo code ledger backed by the provided state manager.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast ledger updates.
// Passing nil resets the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) SetPauses(p nativecommon.PauseView) {
	if l == nil {
		return
	}
	l.pauses = p
}

// AddPromoCode registers a named promo code with a fresh zero-earnings record.
// Reissuing a code is permitted only once its prior earnings have been fully
// withdrawn, so accrued rewards can never be orphaned.
func (l *Ledger) AddPromoCode(caller [20]byte, code string, discountPct uint32, owner, master [20]byte) error {
	if l == nil || l.st == nil {
		return errNilState
	}
	if !l.st.HasRole(roleSaleOperator, caller[:]) {
		return ErrUnauthorized
	}
	if err := nativecommon.Guard(l.pauses, moduleName); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return fmt.Errorf("%w: code required", ErrInvalidPromoCode)
	}
	if isWalletCode(trimmed) {
		return fmt.Errorf("%w: wallet-shaped codes are reserved", ErrInvalidPromoCode)
	}
	if discountPct == 0 || discountPct > 100 {
		return fmt.Errorf("%w: discount percentage out of range", ErrInvalidPromoCode)
	}
	if owner == master {
		return fmt.Errorf("%w: owner and master must differ", ErrInvalidPromoCode)
	}
	existing, found, err := loadPromoCode(l.st, trimmed)
	if err != nil {
		return err
	}
	if found && existing.outstanding().Sign() > 0 {
		return fmt.Errorf("%w: %s", ErrPromoCodeOutstanding, trimmed)
	}
	record := &PromoCode{
		Code:               trimmed,
		DiscountPercentage: discountPct,
		Owner:              owner,
		Master:             master,
	}
	record.normalize()
	if err := storePromoCode(l.st, record); err != nil {
		return err
	}
	l.emit(events.SalePromoCodeAdded{Code: trimmed, Discount: discountPct, Owner: owner, Master: master})
	return nil
}

// GetPromoCode retrieves a promo code record by its canonical code string.
func (l *Ledger) GetPromoCode(code string) (*PromoCode, bool) {
	if l == nil || l.st == nil {
		return nil, false
	}
	record, found, err := loadPromoCode(l.st, canonicalCode(code))
	if err != nil || !found {
		return nil, false
	}
	return record, true
}

func (l *Ledger) emit(event events.Event) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(event)
}

// codeKind tags the resolved shape of a promo code argument. The shape is
// derived once at entry and carried through the purchase, never re-derived.
type codeKind int

const (
	codeKindNone codeKind = iota
	codeKindNamed
	codeKindWallet
)

type resolvedCode struct {
	kind           codeKind
	code           string
	wallet         [20]byte
	walletDiscount uint32
	record         *PromoCode
}

// isWalletCode reports whether the code string has the shape of an encoded
// wallet address.
func isWalletCode(code string) bool {
	return common.IsHexAddress(code)
}

// canonicalCode normalizes a promo code argument to its storage key form.
// Wallet-shaped codes collapse to the lowercase hex form of the address so
// checksum variants hit the same record.
func canonicalCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if isWalletCode(trimmed) {
		return strings.ToLower(common.HexToAddress(trimmed).Hex())
	}
	return trimmed
}

type kvReader interface {
	KVGet(key []byte, out interface{}) (bool, error)
}

type kvWriter interface {
	KVPut(key []byte, value interface{}) error
}

func loadPromoCode(st kvReader, code string) (*PromoCode, bool, error) {
	record := new(PromoCode)
	found, err := st.KVGet(promoKey(code), record)
	if err != nil || !found {
		return nil, false, err
	}
	record.normalize()
	return record, true, nil
}

func storePromoCode(st kvWriter, record *PromoCode) error {
	record.normalize()
	return st.KVPut(promoKey(record.Code), record)
}
