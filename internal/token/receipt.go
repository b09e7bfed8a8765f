package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"assetpool/internal/fixed"
)

// FlashloanTerm is the immutable payload of a flash-loan receipt: what
// was lent and what fee is owed on top.
type FlashloanTerm struct {
	LoanAmount fixed.Decimal `json:"loan_amount"`
	FeeAmount  fixed.Decimal `json:"fee_amount"`
}

// Receipt is a single-use token recording an obligation. A Receipt is
// not a Bucket and cannot enter a vault; the only way to dispose of one
// is to burn it with the issuer that minted it.
type Receipt struct {
	id   uuid.UUID
	kind common.Address
	term FlashloanTerm
}

func (r *Receipt) ID() uuid.UUID        { return r.id }
func (r *Receipt) Kind() common.Address { return r.kind }
func (r *Receipt) Term() FlashloanTerm  { return r.term }

// ReceiptIssuer mints and burns receipts of one kind and tracks which
// of them are still live. A non-empty live set at the end of an
// operation means an obligation went unmet.
type ReceiptIssuer struct {
	kind common.Address
	live map[uuid.UUID]FlashloanTerm
}

// NewReceiptIssuer creates a receipt kind with a fresh address.
func NewReceiptIssuer(name string) *ReceiptIssuer {
	return &ReceiptIssuer{
		kind: NewResourceAddress(name),
		live: make(map[uuid.UUID]FlashloanTerm),
	}
}

// RestoreReceiptIssuer rebuilds a receipt kind. Receipts never outlive
// an operation, so a restored issuer starts with an empty live set.
func RestoreReceiptIssuer(kind common.Address) *ReceiptIssuer {
	return &ReceiptIssuer{
		kind: kind,
		live: make(map[uuid.UUID]FlashloanTerm),
	}
}

func (ri *ReceiptIssuer) Kind() common.Address { return ri.kind }

// MintUnique issues a fresh receipt for term under a random identity.
func (ri *ReceiptIssuer) MintUnique(term FlashloanTerm) *Receipt {
	id := uuid.New()
	ri.live[id] = term
	return &Receipt{id: id, kind: ri.kind, term: term}
}

// Burn retires r. Burning a foreign or already burned receipt fails.
func (ri *ReceiptIssuer) Burn(r *Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: nil receipt", ErrUnknownReceipt)
	}
	if r.kind != ri.kind {
		return fmt.Errorf("%w: receipt of kind %s given to issuer of %s", ErrResourceMismatch, r.kind, ri.kind)
	}
	if _, ok := ri.live[r.id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceipt, r.id)
	}
	delete(ri.live, r.id)
	return nil
}

// Outstanding returns how many receipts of this kind are still live.
func (ri *ReceiptIssuer) Outstanding() int { return len(ri.live) }

// Clone returns an independent copy for use inside an operation session.
func (ri *ReceiptIssuer) Clone() *ReceiptIssuer {
	live := make(map[uuid.UUID]FlashloanTerm, len(ri.live))
	for id, term := range ri.live {
		live[id] = term
	}
	return &ReceiptIssuer{kind: ri.kind, live: live}
}
