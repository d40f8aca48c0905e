package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/code-payments/token-vesting/pkg/app"
	"github.com/code-payments/token-vesting/pkg/vesting"
)

func runDerive(config app.BaseConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("derive", flag.ContinueOnError)
	prefixHex := fs.String("prefix", "", "hex encoded 31 byte seed prefix, random if empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	program, err := config.Program()
	if err != nil {
		return err
	}

	var prefix [vesting.SeedPrefixSize]byte
	if len(*prefixHex) > 0 {
		decoded, err := hex.DecodeString(*prefixHex)
		if err != nil {
			return errors.Wrap(err, "invalid prefix")
		}
		if len(decoded) != vesting.SeedPrefixSize {
			return errors.Errorf("invalid prefix: expected %d bytes, got %d", vesting.SeedPrefixSize, len(decoded))
		}
		copy(prefix[:], decoded)
	} else if _, err := rand.Read(prefix[:]); err != nil {
		return errors.Wrap(err, "failed to generate prefix")
	}

	seed, escrow, err := vesting.FindSeed(program, prefix)
	if err != nil {
		return errors.Wrap(err, "failed to find seed")
	}

	fmt.Fprintf(out, "program: %s\n", base58.Encode(program))
	fmt.Fprintf(out, "seed:    %x\n", seed[:])
	fmt.Fprintf(out, "escrow:  %s\n", base58.Encode(escrow))
	return nil
}

func runEncode(_ app.BaseConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	seedHex := fs.String("seed", "", "hex encoded 32 byte seed")
	count := fs.Uint32("count", 0, "number of schedules (initialize)")
	target := fs.String("target", "", "optional base58 target account hint (initialize)")
	mint := fs.String("mint", "", "base58 mint address (create)")
	destination := fs.String("destination", "", "base58 destination token account (create)")
	schedules := fs.StringSlice("schedule", nil, "release_time:amount, repeatable (create)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one instruction type")
	}

	seed, err := parseSeed(*seedHex)
	if err != nil {
		return err
	}

	var ix vesting.Instruction
	switch fs.Arg(0) {
	case "initialize":
		args := &vesting.InitializeInstructionArgs{Seed: seed, ScheduleCount: *count}
		if len(*target) > 0 {
			if args.TargetAccount, err = parseKey("target", *target); err != nil {
				return err
			}
		}
		ix = args
	case "create":
		args := &vesting.CreateInstructionArgs{Seed: seed}
		if args.Mint, err = parseKey("mint", *mint); err != nil {
			return err
		}
		if args.Destination, err = parseKey("destination", *destination); err != nil {
			return err
		}
		if args.Schedules, err = parseSchedules(*schedules); err != nil {
			return err
		}
		ix = args
	case "unlock":
		ix = &vesting.UnlockInstructionArgs{Seed: seed}
	case "change-destination":
		ix = &vesting.ChangeDestinationInstructionArgs{Seed: seed}
	default:
		return errors.Errorf("unknown instruction type %q", fs.Arg(0))
	}

	fmt.Fprintf(out, "%x\n", ix.Marshal())
	return nil
}

func runDecodeInstruction(_ app.BaseConfig, args []string, out io.Writer) error {
	data, err := parseHexArg(args)
	if err != nil {
		return err
	}

	ix, err := vesting.UnmarshalInstruction(data)
	if err != nil {
		return errors.Wrap(err, "failed to decode instruction")
	}

	fmt.Fprintf(out, "type: %s\n", ix.Type())
	switch args := ix.(type) {
	case *vesting.InitializeInstructionArgs:
		fmt.Fprintf(out, "seed: %x\n", args.Seed[:])
		fmt.Fprintf(out, "schedule_count: %d\n", args.ScheduleCount)
		if len(args.TargetAccount) > 0 {
			fmt.Fprintf(out, "target_account: %s\n", base58.Encode(args.TargetAccount))
		}
	case *vesting.CreateInstructionArgs:
		fmt.Fprintf(out, "seed: %x\n", args.Seed[:])
		fmt.Fprintf(out, "mint: %s\n", base58.Encode(args.Mint))
		fmt.Fprintf(out, "destination: %s\n", base58.Encode(args.Destination))
		writeSchedules(out, args.Schedules, nil)
	case *vesting.UnlockInstructionArgs:
		fmt.Fprintf(out, "seed: %x\n", args.Seed[:])
	case *vesting.ChangeDestinationInstructionArgs:
		fmt.Fprintf(out, "seed: %x\n", args.Seed[:])
	}
	return nil
}

func runDecodeState(_ app.BaseConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("decode-state", flag.ContinueOnError)
	now := fs.Int64("now", time.Now().Unix(), "unix timestamp used to classify schedules")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := parseHexArg(fs.Args())
	if err != nil {
		return err
	}

	var escrow vesting.EscrowAccount
	if err := escrow.Unmarshal(data); err != nil {
		return errors.Wrap(err, "failed to decode escrow")
	}

	fmt.Fprintf(out, "destination: %s\n", base58.Encode(escrow.Header.Destination))
	fmt.Fprintf(out, "mint: %s\n", base58.Encode(escrow.Header.Mint))
	fmt.Fprintf(out, "initialized: %v\n", escrow.Header.IsInitialized)
	fmt.Fprintf(out, "locked: %d\n", escrow.Locked())
	writeSchedules(out, escrow.Schedules, now)
	return nil
}

// writeSchedules prints the schedules as a table. If now is set, each
// schedule is classified as released, unlockable or locked.
func writeSchedules(out io.Writer, schedules []vesting.Schedule, now *int64) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	header := "INDEX\tRELEASE TIME\tAMOUNT"
	if now != nil {
		header += "\tSTATUS"
	}
	fmt.Fprintln(w, header)

	for i, s := range schedules {
		line := fmt.Sprintf(
			"%d\t%s\t%d",
			i,
			time.Unix(int64(s.ReleaseTime), 0).UTC().Format(time.RFC3339),
			s.Amount,
		)

		if now != nil {
			status := "locked"
			switch {
			case s.Amount == 0:
				status = "released"
			case s.IsMatured(*now):
				status = "unlockable"
			}
			line += "\t" + status
		}
		fmt.Fprintln(w, line)
	}

	_ = w.Flush()
}

func parseSeed(s string) ([32]byte, error) {
	var seed [32]byte

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return seed, errors.Wrap(err, "invalid seed")
	}
	if len(decoded) != len(seed) {
		return seed, errors.Errorf("invalid seed: expected %d bytes, got %d", len(seed), len(decoded))
	}

	copy(seed[:], decoded)
	return seed, nil
}

func parseKey(name, s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid %s: expected %d bytes, got %d", name, ed25519.PublicKeySize, len(decoded))
	}
	return decoded, nil
}

// parseSchedules parses release_time:amount pairs.
func parseSchedules(values []string) ([]vesting.Schedule, error) {
	schedules := make([]vesting.Schedule, len(values))
	for i, v := range values {
		parts := strings.SplitN(v, ":", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid schedule %q: expected release_time:amount", v)
		}

		releaseTime, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid schedule release time %q", parts[0])
		}
		amount, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid schedule amount %q", parts[1])
		}

		schedules[i] = vesting.Schedule{ReleaseTime: releaseTime, Amount: amount}
	}
	return schedules, nil
}

func parseHexArg(args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.New("expected exactly one hex argument")
	}

	decoded, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex")
	}
	return decoded, nil
}
