// Package token provides the fungible and non-fungible primitives the
// pool is built on: resource identities, buckets of fungible amounts,
// and the issuers that control supply.
package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// NewResourceAddress derives a fresh 20-byte identity for a newly
// created resource. The random component guarantees two resources never
// collide even when created with the same name.
func NewResourceAddress(name string) common.Address {
	id := uuid.New()
	h := crypto.Keccak256([]byte(name), id[:])
	return common.BytesToAddress(h[12:])
}
