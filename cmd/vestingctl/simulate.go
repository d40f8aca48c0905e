package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/code-payments/token-vesting/pkg/app"
	"github.com/code-payments/token-vesting/pkg/runtime/memory"
	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/system"
	"github.com/code-payments/token-vesting/pkg/solana/token"
	"github.com/code-payments/token-vesting/pkg/vesting"
)

// simulation is a single escrow on an in-memory ledger, with every party's
// keys held locally.
type simulation struct {
	ctx     context.Context
	out     io.Writer
	clock   *clockwork.FakeClock
	ledger  *memory.Ledger
	program ed25519.PublicKey

	payer ed25519.PrivateKey
	mint  ed25519.PublicKey

	seed        [32]byte
	escrow      ed25519.PublicKey
	escrowToken ed25519.PublicKey

	sourceOwner ed25519.PrivateKey
	sourceToken ed25519.PublicKey

	destinationOwner ed25519.PrivateKey
	destinationToken ed25519.PublicKey
}

func runSimulate(config app.BaseConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	offsets := fs.StringSlice("schedule", []string{"0:100", "3600:200", "7200:300"}, "seconds_after_start:amount, repeatable")
	balance := fs.Uint64("balance", 1000, "initial source token balance")
	redirectAfter := fs.Int("redirect-after", 1, "change the destination after this many unlocks, negative to never")
	if err := fs.Parse(args); err != nil {
		return err
	}

	program, err := config.Program()
	if err != nil {
		return err
	}

	relative, err := parseSchedules(*offsets)
	if err != nil {
		return err
	}

	s, err := newSimulation(program, *balance, out)
	if err != nil {
		return err
	}
	return s.run(relative, *redirectAfter)
}

func newSimulation(program ed25519.PublicKey, balance uint64, out io.Writer) (*simulation, error) {
	clock := clockwork.NewFakeClockAt(time.Now().Truncate(time.Second))
	s := &simulation{
		ctx:     context.Background(),
		out:     out,
		clock:   clock,
		ledger:  memory.NewLedger(clock, memory.WithEnvConfigs()),
		program: program,
	}
	s.ledger.RegisterProgram(program, vesting.NewProcessor(logrus.StandardLogger().WithField("program", base58.Encode(program))))

	var err error
	for _, key := range []*ed25519.PrivateKey{&s.payer, &s.sourceOwner, &s.destinationOwner} {
		if _, *key, err = ed25519.GenerateKey(nil); err != nil {
			return nil, errors.Wrap(err, "failed to generate key")
		}
	}
	for _, key := range []*ed25519.PublicKey{&s.mint, &s.escrowToken, &s.sourceToken, &s.destinationToken} {
		if *key, _, err = ed25519.GenerateKey(nil); err != nil {
			return nil, errors.Wrap(err, "failed to generate key")
		}
	}

	var prefix [vesting.SeedPrefixSize]byte
	if _, err := rand.Read(prefix[:]); err != nil {
		return nil, errors.Wrap(err, "failed to generate seed prefix")
	}
	if s.seed, s.escrow, err = vesting.FindSeed(program, prefix); err != nil {
		return nil, errors.Wrap(err, "failed to find seed")
	}

	s.ledger.SetAccount(public(s.payer), &memory.Account{Owner: system.ProgramKey[:], Lamports: 1e9})
	s.setTokenAccount(s.escrowToken, s.escrow, 0)
	s.setTokenAccount(s.sourceToken, public(s.sourceOwner), balance)
	s.setTokenAccount(s.destinationToken, public(s.destinationOwner), 0)

	return s, nil
}

func (s *simulation) run(relative []vesting.Schedule, redirectAfter int) error {
	start := uint64(s.clock.Now().Unix())
	schedules := make([]vesting.Schedule, len(relative))
	for i, r := range relative {
		schedules[i] = vesting.Schedule{ReleaseTime: start + r.ReleaseTime, Amount: r.Amount}
	}

	fmt.Fprintf(s.out, "program: %s\nescrow:  %s\nseed:    %x\n\n", base58.Encode(s.program), base58.Encode(s.escrow), s.seed[:])

	err := s.submit("initialize", vesting.NewInitializeInstruction(
		s.program,
		&vesting.InitializeInstructionAccounts{
			Payer:  public(s.payer),
			Escrow: s.escrow,
		},
		&vesting.InitializeInstructionArgs{
			Seed:          s.seed,
			ScheduleCount: uint32(len(schedules)),
		},
	))
	if err != nil {
		return err
	}

	err = s.submit("create", vesting.NewCreateInstruction(
		s.program,
		&vesting.CreateInstructionAccounts{
			Escrow:      s.escrow,
			EscrowToken: s.escrowToken,
			SourceOwner: public(s.sourceOwner),
			SourceToken: s.sourceToken,
		},
		&vesting.CreateInstructionArgs{
			Seed:        s.seed,
			Mint:        s.mint,
			Destination: s.destinationToken,
			Schedules:   schedules,
		},
	), s.sourceOwner)
	if err != nil {
		return err
	}

	releaseTimes := make([]uint64, 0, len(schedules))
	for _, schedule := range schedules {
		releaseTimes = append(releaseTimes, schedule.ReleaseTime)
	}
	sort.Slice(releaseTimes, func(i, j int) bool { return releaseTimes[i] < releaseTimes[j] })

	var unlocks int
	for i, releaseTime := range releaseTimes {
		if i > 0 && releaseTime == releaseTimes[i-1] {
			continue
		}
		if now := uint64(s.clock.Now().Unix()); releaseTime > now {
			s.clock.Advance(time.Duration(releaseTime-now) * time.Second)
		}

		err = s.submit("unlock", vesting.NewUnlockInstruction(
			s.program,
			&vesting.UnlockInstructionAccounts{
				Escrow:           s.escrow,
				EscrowToken:      s.escrowToken,
				DestinationToken: s.destinationToken,
			},
			&vesting.UnlockInstructionArgs{
				Seed: s.seed,
			},
		))
		if err != nil {
			return err
		}

		unlocks++
		if unlocks == redirectAfter {
			if err := s.redirect(); err != nil {
				return err
			}
		}
	}

	return nil
}

// redirect moves the escrow's destination to a freshly created token account
// with a new owner.
func (s *simulation) redirect() error {
	_, newOwner, err := ed25519.GenerateKey(nil)
	if err != nil {
		return errors.Wrap(err, "failed to generate key")
	}
	newDestination, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return errors.Wrap(err, "failed to generate key")
	}
	s.setTokenAccount(newDestination, public(newOwner), 0)

	err = s.execute("change-destination", vesting.NewChangeDestinationInstruction(
		s.program,
		&vesting.ChangeDestinationInstructionAccounts{
			Escrow:                  s.escrow,
			CurrentDestinationToken: s.destinationToken,
			CurrentDestinationOwner: public(s.destinationOwner),
			NewDestinationToken:     newDestination,
		},
		&vesting.ChangeDestinationInstructionArgs{
			Seed: s.seed,
		},
	), s.destinationOwner)
	if err != nil {
		return err
	}

	s.destinationToken, s.destinationOwner = newDestination, newOwner
	return s.report("change-destination")
}

func (s *simulation) submit(step string, ix solana.Instruction, signers ...ed25519.PrivateKey) error {
	if err := s.execute(step, ix, signers...); err != nil {
		return err
	}
	return s.report(step)
}

func (s *simulation) execute(step string, ix solana.Instruction, signers ...ed25519.PrivateKey) error {
	tx := solana.NewTransaction(public(s.payer), ix)
	if err := tx.Sign(append([]ed25519.PrivateKey{s.payer}, signers...)...); err != nil {
		return errors.Wrapf(err, "failed to sign %s", step)
	}

	if err := s.ledger.SubmitTransaction(s.ctx, tx); err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			if encoded, jsonErr := txErr.JSONString(); jsonErr == nil {
				return errors.Wrapf(err, "%s failed with %s", step, encoded)
			}
		}
		return errors.Wrapf(err, "%s failed", step)
	}
	return nil
}

func (s *simulation) report(step string) error {
	source, err := s.tokenBalance(s.sourceToken)
	if err != nil {
		return err
	}
	escrow, err := s.tokenBalance(s.escrowToken)
	if err != nil {
		return err
	}
	destination, err := s.tokenBalance(s.destinationToken)
	if err != nil {
		return err
	}

	fmt.Fprintf(
		s.out,
		"%s %-18s source=%d escrow=%d destination=%d (%s)\n",
		s.clock.Now().UTC().Format(time.RFC3339),
		step,
		source,
		escrow,
		destination,
		base58.Encode(s.destinationToken),
	)
	return nil
}

func (s *simulation) setTokenAccount(key, owner ed25519.PublicKey, amount uint64) {
	account := token.Account{
		Mint:   s.mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	s.ledger.SetAccount(key, &memory.Account{
		Owner:    token.ProgramKey,
		Lamports: 2039280,
		Data:     account.Marshal(),
	})
}

func (s *simulation) tokenBalance(key ed25519.PublicKey) (uint64, error) {
	stored, err := s.ledger.GetAccount(key)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get token account %s", base58.Encode(key))
	}

	var account token.Account
	if !account.Unmarshal(stored.Data) {
		return 0, errors.Errorf("invalid token account %s", base58.Encode(key))
	}
	return account.Amount, nil
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}
