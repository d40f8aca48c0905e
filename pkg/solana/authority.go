package solana

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// DerivedAuthority is the capability a program holds over an address it can
// derive from a seed and its own program id. The program holds no private key
// for the address; instead, the runtime accepts the seed as proof that the
// calling program may sign for it during a cross-program invocation.
type DerivedAuthority struct {
	Seed      [32]byte
	ProgramID ed25519.PublicKey
}

// NewDerivedAuthority returns the authority of program over the address
// derived from seed.
func NewDerivedAuthority(program ed25519.PublicKey, seed [32]byte) DerivedAuthority {
	return DerivedAuthority{
		Seed:      seed,
		ProgramID: program,
	}
}

// Address returns the program derived address controlled by the authority.
//
// ErrInvalidPublicKey is returned if the seed derives an on-curve point, in
// which case no program can sign for it.
func (a DerivedAuthority) Address() (ed25519.PublicKey, error) {
	return CreateProgramAddress(a.ProgramID, a.Seed[:])
}

// Controls reports whether the authority derives exactly the provided address.
func (a DerivedAuthority) Controls(address ed25519.PublicKey) bool {
	derived, err := a.Address()
	if err != nil {
		return false
	}
	return bytes.Equal(derived, address)
}

// SignerSeeds returns the seeds the runtime re-derives the signing address from.
func (a DerivedAuthority) SignerSeeds() [][]byte {
	return [][]byte{a.Seed[:]}
}

func (a DerivedAuthority) String() string {
	return fmt.Sprintf(
		"DerivedAuthority{program=%s,seed=%x}",
		base58.Encode(a.ProgramID),
		a.Seed[:],
	)
}
