package sale

import "strings"

var (
	tierPrefix          = []byte("sale/tier/")
	tierIndexKey        = []byte("sale/tier/index")
	promoPrefix         = []byte("sale/promo/")
	purchasedPrefix     = []byte("sale/purchased/")
	soldPrefix          = []byte("sale/sold/")
	totalSoldKey        = []byte("sale/total_sold")
	rewardsUnclaimedKey = []byte("sale/rewards/unclaimed")
)

func tierKey(id string) []byte {
	trimmed := strings.TrimSpace(id)
	buf := make([]byte, len(tierPrefix)+len(trimmed))
	copy(buf, tierPrefix)
	copy(buf[len(tierPrefix):], trimmed)
	return buf
}

func promoKey(code string) []byte {
	buf := make([]byte, len(promoPrefix)+len(code))
	copy(buf, promoPrefix)
	copy(buf[len(promoPrefix):], code)
	return buf
}

func purchasedKey(tierID string, wallet [20]byte) []byte {
	trimmed := strings.TrimSpace(tierID)
	buf := make([]byte, len(purchasedPrefix)+len(trimmed)+1+len(wallet))
	copy(buf, purchasedPrefix)
	copy(buf[len(purchasedPrefix):], trimmed)
	buf[len(purchasedPrefix)+len(trimmed)] = '/'
	copy(buf[len(purchasedPrefix)+len(trimmed)+1:], wallet[:])
	return buf
}

func soldKey(tierID string) []byte {
	trimmed := strings.TrimSpace(tierID)
	buf := make([]byte, len(soldPrefix)+len(trimmed))
	copy(buf, soldPrefix)
	copy(buf[len(soldPrefix):], trimmed)
	return buf
}
