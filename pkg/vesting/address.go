package vesting

import (
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/solana"
)

// SeedPrefixSize is the size of the caller chosen part of a seed. The final
// byte of a seed is the bump that moves its address off the curve.
const SeedPrefixSize = 31

// GetEscrowAuthority returns the authority program holds over the escrow
// derived from seed.
func GetEscrowAuthority(program ed25519.PublicKey, seed [32]byte) solana.DerivedAuthority {
	return solana.NewDerivedAuthority(program, seed)
}

// GetEscrowAddress returns the escrow address derived from seed, or
// solana.ErrInvalidPublicKey if the seed does not derive a valid address.
func GetEscrowAddress(program ed25519.PublicKey, seed [32]byte) (ed25519.PublicKey, error) {
	return GetEscrowAuthority(program, seed).Address()
}

// FindSeed completes prefix with the bump that derives a valid escrow
// address, returning the seed and the address.
func FindSeed(program ed25519.PublicKey, prefix [SeedPrefixSize]byte) ([32]byte, ed25519.PublicKey, error) {
	var seed [32]byte

	address, bump, err := solana.FindProgramAddressAndBump(program, prefix[:])
	if err != nil {
		return seed, nil, err
	}

	copy(seed[:], prefix[:])
	seed[SeedPrefixSize] = bump
	return seed, address, nil
}
