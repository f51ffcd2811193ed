package sale

// AddOperator grants the sale operator capability to the address. Only an
// admin may manage the operator set.
func (e *Engine) AddOperator(caller [20]byte, addr [20]byte) error {
	if e == nil || e.st == nil {
		return errNilState
	}
	if !e.st.HasRole(roleSaleAdmin, caller[:]) {
		return ErrUnauthorized
	}
	return e.st.GrantRole(roleSaleOperator, addr[:])
}

// RemoveOperator revokes the sale operator capability from the address. Only
// an admin may manage the operator set.
func (e *Engine) RemoveOperator(caller [20]byte, addr [20]byte) error {
	if e == nil || e.st == nil {
		return errNilState
	}
	if !e.st.HasRole(roleSaleAdmin, caller[:]) {
		return ErrUnauthorized
	}
	return e.st.RevokeRole(roleSaleOperator, addr[:])
}
