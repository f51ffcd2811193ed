package types

import "math/big"

// Account holds the balances tracked by the settlement substrate. BalancePay
// is denominated in payment-asset minor units, BalanceSale in sale-asset
// units.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalancePay  *big.Int `json:"balancePay"`
	BalanceSale *big.Int `json:"balanceSale"`
}

// Clone returns a deep copy so callers cannot mutate shared big.Int pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, BalancePay: big.NewInt(0), BalanceSale: big.NewInt(0)}
	if a.BalancePay != nil {
		clone.BalancePay = new(big.Int).Set(a.BalancePay)
	}
	if a.BalanceSale != nil {
		clone.BalanceSale = new(big.Int).Set(a.BalanceSale)
	}
	return clone
}
