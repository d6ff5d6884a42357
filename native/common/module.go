package common

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleAddress derives a deterministic custody address for a ledger module.
// No key exists for these addresses, so funds parked under them can only move
// through module code.
func ModuleAddress(name string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("vidchain/module/" + name))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}
