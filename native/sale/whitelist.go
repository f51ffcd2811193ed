package sale

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// allocationLeaf computes the Merkle leaf for a (wallet, allocation) pair:
// keccak256(wallet || leftPad32(allocation)), matching the encoding used by
// the off-chain tree builder.
func allocationLeaf(wallet [20]byte, allocation *big.Int) [32]byte {
	alloc := common.LeftPadBytes(cloneBigInt(allocation).Bytes(), 32)
	return ethcrypto.Keccak256Hash(wallet[:], alloc)
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	return ethcrypto.Keccak256Hash(a[:], b[:])
}

// VerifyAllocation checks a standard sorted-pair Merkle inclusion proof for
// the (wallet, allocation) leaf against the supplied root. It is a pure
// function of its inputs.
func VerifyAllocation(root [32]byte, wallet [20]byte, allocation *big.Int, proof [][32]byte) bool {
	computed := allocationLeaf(wallet, allocation)
	for _, node := range proof {
		computed = hashPair(computed, node)
	}
	return computed == root
}
