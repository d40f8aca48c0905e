// Package memory provides an in-memory ledger that executes transactions
// against registered runtime.Programs.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/token-vesting/pkg/runtime"
	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/system"
	"github.com/code-payments/token-vesting/pkg/solana/token"
)

// SlotsPerEpoch matches the mainnet epoch length.
const SlotsPerEpoch = 432000

var (
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the stored state of a single account.
type Account struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

func (a *Account) clone() *Account {
	return &Account{
		Owner:      cloneBytes(a.Owner),
		Lamports:   a.Lamports,
		Data:       cloneBytes(a.Data),
		Executable: a.Executable,
	}
}

// Ledger is an in-memory, single node ledger.
//
// Transactions are applied one at a time. Each transaction either applies all
// of its instructions or none of them.
type Ledger struct {
	log     *logrus.Entry
	conf    *conf
	clock   clockwork.Clock
	genesis time.Time

	mu       sync.Mutex
	accounts map[string]*Account
	programs map[string]runtime.Program
}

// NewLedger returns a ledger with the system and token programs registered.
func NewLedger(clock clockwork.Clock, configProvider ConfigProvider) *Ledger {
	l := &Ledger{
		log:      logrus.StandardLogger().WithField("type", "runtime/memory"),
		conf:     configProvider(),
		clock:    clock,
		genesis:  clock.Now(),
		accounts: make(map[string]*Account),
		programs: make(map[string]runtime.Program),
	}

	l.RegisterProgram(system.ProgramKey[:], system.NewProcessor())
	l.RegisterProgram(token.ProgramKey, token.NewProcessor())

	return l
}

// RegisterProgram deploys program at id, replacing any existing program.
func (l *Ledger) RegisterProgram(id ed25519.PublicKey, program runtime.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.programs[string(id)] = program
	l.accounts[string(id)] = &Account{
		Owner:      system.NativeLoader,
		Lamports:   1,
		Executable: true,
	}
}

// SetAccount overwrites the account stored at key.
func (l *Ledger) SetAccount(key ed25519.PublicKey, account *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(key)] = account.clone()
}

// GetAccount returns a copy of the account stored at key.
func (l *Ledger) GetAccount(key ed25519.PublicKey) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bytes.Equal(key, system.ClockSysVar) || bytes.Equal(key, system.RentSysVar) {
		return l.sysvar(context.Background(), key), nil
	}

	account, ok := l.accounts[string(key)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.clone(), nil
}

// Clock returns the current value of the Clock sysvar.
func (l *Ledger) Clock(ctx context.Context) system.Clock {
	now := l.clock.Now()

	var slot uint64
	if slotDuration := l.conf.slotDuration.Get(ctx); slotDuration > 0 && now.After(l.genesis) {
		slot = uint64(now.Sub(l.genesis) / slotDuration)
	}

	epoch := slot / SlotsPerEpoch
	return system.Clock{
		Slot:                slot,
		EpochStartTimestamp: l.genesis.Unix(),
		Epoch:               epoch,
		LeaderScheduleEpoch: epoch + 1,
		UnixTimestamp:       now.Unix(),
	}
}

// Rent returns the current value of the Rent sysvar.
func (l *Ledger) Rent(ctx context.Context) system.Rent {
	return system.Rent{
		LamportsPerByteYear: l.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  l.conf.rentExemptionThreshold.Get(ctx),
		BurnPercent:         uint8(l.conf.rentBurnPercent.Get(ctx)),
	}
}

func (l *Ledger) sysvar(ctx context.Context, key ed25519.PublicKey) *Account {
	var data []byte
	switch {
	case bytes.Equal(key, system.ClockSysVar):
		clock := l.Clock(ctx)
		data = clock.Marshal()
	case bytes.Equal(key, system.RentSysVar):
		rent := l.Rent(ctx)
		data = rent.Marshal()
	default:
		return nil
	}

	rent := l.Rent(ctx)
	return &Account{
		Owner:    system.SysvarOwner,
		Lamports: rent.MinimumBalance(uint64(len(data))),
		Data:     data,
	}
}

// SubmitTransaction verifies and executes tx.
//
// If any instruction fails, no account is modified and a *solana.TransactionError
// identifying the instruction is returned.
func (l *Ledger) SubmitTransaction(ctx context.Context, tx solana.Transaction) error {
	log := l.log.WithField("method", "SubmitTransaction")
	if len(tx.Signatures) > 0 {
		log = log.WithField("signature", base58.Encode(tx.Signature()))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if l.conf.verifySignatures.Get(ctx) {
		if err := tx.VerifySignatures(); err != nil {
			log.WithError(err).Info("transaction failed signature verification")
			return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	if txErr := sanitize(tx.Message); txErr != nil {
		log.WithField("reason", txErr.Error()).Info("transaction failed sanitization")
		return txErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	exec := &executor{
		ledger:   l,
		accounts: make(map[string]*Account, len(tx.Message.Accounts)),
	}
	for _, key := range tx.Message.Accounts {
		account, ok := l.accounts[string(key)]
		switch {
		case ok:
			exec.accounts[string(key)] = account.clone()
		case l.sysvar(ctx, key) != nil:
			exec.accounts[string(key)] = l.sysvar(ctx, key)
		default:
			// Unknown accounts are treated as empty system accounts, which is
			// what allows CreateAccount to target them.
			exec.accounts[string(key)] = &Account{Owner: system.ProgramKey[:]}
		}
	}

	for i := range tx.Message.Instructions {
		if err := ctx.Err(); err != nil {
			return err
		}

		ix, err := tx.Message.Decompile(i)
		if err != nil {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}

		if err := exec.invoke(ix.Program, ix.Accounts, ix.Data); err != nil {
			log.WithFields(logrus.Fields{
				"instruction": i,
				"program":     base58.Encode(ix.Program),
			}).WithError(err).Info("instruction failed")

			txErr, convErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
				Index: i,
				Err:   err,
			})
			if convErr != nil {
				return errors.Wrap(convErr, "failed to convert instruction error")
			}
			return txErr
		}
	}

	// Sysvars are derived on demand and never persisted.
	for key, account := range exec.accounts {
		if bytes.Equal([]byte(key), system.ClockSysVar) || bytes.Equal([]byte(key), system.RentSysVar) {
			continue
		}
		l.accounts[key] = account
	}

	log.WithField("instructions", len(tx.Message.Instructions)).Debug("transaction applied")
	return nil
}

func sanitize(m solana.Message) *solana.TransactionError {
	if int(m.Header.NumSignatures) == 0 || int(m.Header.NumSignatures) > len(m.Accounts) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if int(m.Header.NumReadonlySigned) >= int(m.Header.NumSignatures) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if int(m.Header.NumSignatures)+int(m.Header.NumReadOnly) > len(m.Accounts) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	seen := make(map[string]struct{}, len(m.Accounts))
	for _, key := range m.Accounts {
		if len(key) != ed25519.PublicKeySize {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if _, ok := seen[string(key)]; ok {
			return solana.NewTransactionError(solana.TransactionErrorAccountLoadedTwice)
		}
		seen[string(key)] = struct{}{}
	}

	for _, ix := range m.Instructions {
		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
			}
		}
	}

	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
