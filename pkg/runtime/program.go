// Package runtime defines the boundary between programs and the ledger that
// executes them.
package runtime

import (
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/solana"
)

// Program processes instructions addressed to it.
//
// Implementations validate the accounts they are given and either mutate them
// in place and return nil, or return an error and leave the decision to roll
// back to the host. Errors should be a solana.ProgramError or
// solana.CustomError so the host can report them.
type Program interface {
	Process(ctx Context, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function into a Program.
type ProgramFunc func(ctx Context, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx Context, accounts []*AccountInfo, data []byte) error {
	return f(ctx, accounts, data)
}

// Context is the host environment available to a program during a single
// invocation.
type Context interface {
	// ProgramID returns the address of the currently executing program.
	ProgramID() ed25519.PublicKey

	// Invoke performs a cross-program invocation of ix.
	//
	// Every account referenced by ix must have been passed to the calling
	// program. A signer meta is accepted if the account already signed the
	// caller's invocation, or if one of signers is owned by the calling program
	// and derives the account's address. Account changes made by the callee are
	// visible to the caller's AccountInfos when Invoke returns.
	Invoke(ix solana.Instruction, signers ...solana.DerivedAuthority) error
}
