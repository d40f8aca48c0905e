package vesting

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/token-vesting/pkg/runtime"
	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/system"
	"github.com/code-payments/token-vesting/pkg/solana/token"
)

// Processor is the vesting program.
//
// An escrow account is allocated by Initialize, funded once by Create, and
// drained by Unlock as its schedules mature. The owner of the destination
// token account may redirect future releases with ChangeDestination.
type Processor struct {
	log *logrus.Entry
}

func NewProcessor(log *logrus.Entry) *Processor {
	return &Processor{
		log: log.WithField("type", "vesting/processor"),
	}
}

// Process implements runtime.Program.
func (p *Processor) Process(ctx runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	ix, err := UnmarshalInstruction(data)
	if err != nil {
		p.log.WithField("data_len", len(data)).Info("failed to decode instruction")
		return err
	}

	log := p.log.WithField("instruction", ix.Type().String())
	log.Debug("processing instruction")

	it := runtime.NewAccountIterator(accounts)
	switch args := ix.(type) {
	case *InitializeInstructionArgs:
		err = p.processInitialize(ctx, log, it, args)
	case *CreateInstructionArgs:
		err = p.processCreate(ctx, log, it, args)
	case *UnlockInstructionArgs:
		err = p.processUnlock(ctx, log, it, args)
	case *ChangeDestinationInstructionArgs:
		err = p.processChangeDestination(ctx, log, it, args)
	default:
		err = ErrBadInstruction
	}

	if err != nil {
		log.WithError(err).Info("instruction rejected")
		return err
	}

	log.Debug("instruction processed")
	return nil
}

func (p *Processor) processInitialize(ctx runtime.Context, log *logrus.Entry, it *runtime.AccountIterator, args *InitializeInstructionArgs) error {
	infos, err := runtime.NextAccountInfos(it, 4)
	if err != nil {
		return err
	}
	rentInfo, payerInfo, escrowInfo := infos[1], infos[2], infos[3]

	if len(args.TargetAccount) > 0 {
		log = log.WithField("target_account", base58.Encode(args.TargetAccount))
	}

	authority := GetEscrowAuthority(ctx.ProgramID(), args.Seed)
	if !authority.Controls(escrowInfo.Key) {
		log.Info("escrow account does not match the seed")
		return solana.ErrInvalidArgument
	}

	if !rentInfo.Is(system.RentSysVar) {
		log.Info("unexpected rent sysvar account")
		return solana.ErrInvalidArgument
	}
	var rent system.Rent
	if err := rent.Unmarshal(rentInfo.Data); err != nil {
		return solana.ErrInvalidAccountData
	}

	size := uint64(EscrowHeaderSize) + uint64(args.ScheduleCount)*ScheduleSize
	lamports := rent.MinimumBalance(size)

	log.WithFields(logrus.Fields{
		"escrow":   base58.Encode(escrowInfo.Key),
		"size":     size,
		"lamports": lamports,
	}).Debug("allocating escrow account")

	return ctx.Invoke(
		system.CreateAccount(payerInfo.Key, escrowInfo.Key, ctx.ProgramID(), lamports, size),
		authority,
	)
}

func (p *Processor) processCreate(ctx runtime.Context, log *logrus.Entry, it *runtime.AccountIterator, args *CreateInstructionArgs) error {
	infos, err := runtime.NextAccountInfos(it, 5)
	if err != nil {
		return err
	}
	escrowInfo, escrowTokenInfo, sourceOwnerInfo, sourceTokenInfo := infos[1], infos[2], infos[3], infos[4]

	authority := GetEscrowAuthority(ctx.ProgramID(), args.Seed)
	if !authority.Controls(escrowInfo.Key) {
		log.Info("escrow account does not match the seed")
		return solana.ErrInvalidArgument
	}

	if !escrowInfo.IsOwnedBy(ctx.ProgramID()) {
		log.Info("escrow account is not owned by the program")
		return solana.ErrInvalidArgument
	}

	if !sourceOwnerInfo.IsSigner {
		log.Info("source token account owner must sign")
		return solana.ErrInvalidArgument
	}

	if IsEscrowInitialized(escrowInfo.Data) {
		log.Info("escrow account is already funded")
		return solana.ErrInvalidArgument
	}

	var escrowToken token.Account
	if !escrowToken.Unmarshal(escrowTokenInfo.Data) {
		return solana.ErrInvalidAccountData
	}
	if !escrowInfo.Is(escrowToken.Owner) {
		log.Info("escrow token account is not owned by the escrow")
		return solana.ErrInvalidArgument
	}
	if len(escrowToken.Delegate) > 0 {
		log.Info("escrow token account must not have a delegate")
		return solana.ErrInvalidAccountData
	}
	if len(escrowToken.CloseAuthority) > 0 {
		log.Info("escrow token account must not have a close authority")
		return solana.ErrInvalidAccountData
	}

	if len(escrowInfo.Data) != EscrowSize(len(args.Schedules)) {
		log.WithFields(logrus.Fields{
			"data_len":  len(escrowInfo.Data),
			"schedules": len(args.Schedules),
		}).Info("escrow account size does not match the schedules")
		return solana.ErrInvalidAccountData
	}

	total, err := TotalAmount(args.Schedules)
	if err != nil {
		return err
	}

	var source token.Account
	if !source.Unmarshal(sourceTokenInfo.Data) {
		return solana.ErrInvalidAccountData
	}
	if source.Amount < total {
		log.WithFields(logrus.Fields{
			"balance": source.Amount,
			"total":   total,
		}).Info("source token account has insufficient funds")
		return solana.ErrInsufficientFunds
	}

	if err := ctx.Invoke(token.Transfer(sourceTokenInfo.Key, escrowTokenInfo.Key, sourceOwnerInfo.Key, total)); err != nil {
		return err
	}

	header := EscrowHeader{
		Destination:   args.Destination,
		Mint:          args.Mint,
		IsInitialized: true,
	}
	header.MarshalInto(escrowInfo.Data)
	copy(escrowInfo.Data[EscrowHeaderSize:], MarshalSchedules(args.Schedules))

	log.WithFields(logrus.Fields{
		"escrow":      base58.Encode(escrowInfo.Key),
		"destination": base58.Encode(args.Destination),
		"total":       total,
	}).Debug("escrow funded")
	return nil
}

func (p *Processor) processUnlock(ctx runtime.Context, log *logrus.Entry, it *runtime.AccountIterator, args *UnlockInstructionArgs) error {
	infos, err := runtime.NextAccountInfos(it, 5)
	if err != nil {
		return err
	}
	tokenProgramInfo, clockInfo, escrowInfo, escrowTokenInfo, destinationInfo := infos[0], infos[1], infos[2], infos[3], infos[4]

	authority := GetEscrowAuthority(ctx.ProgramID(), args.Seed)
	if !authority.Controls(escrowInfo.Key) {
		log.Info("escrow account does not match the seed")
		return solana.ErrInvalidArgument
	}

	if !tokenProgramInfo.Is(token.ProgramKey) {
		log.Info("unexpected token program account")
		return solana.ErrInvalidArgument
	}

	var escrow EscrowAccount
	if err := escrow.Unmarshal(escrowInfo.Data); err != nil {
		log.WithField("data_len", len(escrowInfo.Data)).Info("malformed escrow account")
		return err
	}

	if !destinationInfo.Is(escrow.Header.Destination) {
		log.Info("destination token account does not match the escrow")
		return solana.ErrInvalidArgument
	}

	var escrowToken token.Account
	if !escrowToken.Unmarshal(escrowTokenInfo.Data) {
		return solana.ErrInvalidAccountData
	}
	if !escrowInfo.Is(escrowToken.Owner) {
		log.Info("escrow token account is not owned by the escrow")
		return solana.ErrInvalidArgument
	}

	if !clockInfo.Is(system.ClockSysVar) {
		log.Info("unexpected clock sysvar account")
		return solana.ErrInvalidArgument
	}
	var clock system.Clock
	if err := clock.Unmarshal(clockInfo.Data); err != nil {
		return solana.ErrInvalidAccountData
	}

	var total uint64
	var matured []int
	for i, s := range escrow.Schedules {
		if !s.IsMatured(clock.UnixTimestamp) || s.Amount == 0 {
			continue
		}

		next := total + s.Amount
		if next < total {
			return solana.ErrInvalidInstructionData
		}
		total = next
		matured = append(matured, i)
	}

	if total == 0 {
		log.WithField("unix_timestamp", clock.UnixTimestamp).Info("no schedule has matured")
		return solana.ErrInvalidArgument
	}

	err = ctx.Invoke(
		token.Transfer(escrowTokenInfo.Key, destinationInfo.Key, escrowInfo.Key, total),
		authority,
	)
	if err != nil {
		return err
	}

	for _, i := range matured {
		if err := PatchScheduleAmount(escrowInfo.Data, i, 0); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"escrow":    base58.Encode(escrowInfo.Key),
		"released":  total,
		"schedules": len(matured),
	}).Debug("schedules released")
	return nil
}

func (p *Processor) processChangeDestination(ctx runtime.Context, log *logrus.Entry, it *runtime.AccountIterator, args *ChangeDestinationInstructionArgs) error {
	infos, err := runtime.NextAccountInfos(it, 4)
	if err != nil {
		return err
	}
	escrowInfo, destinationInfo, destinationOwnerInfo, newDestinationInfo := infos[0], infos[1], infos[2], infos[3]

	if len(escrowInfo.Data) < EscrowHeaderSize {
		return solana.ErrInvalidAccountData
	}

	authority := GetEscrowAuthority(ctx.ProgramID(), args.Seed)
	if !authority.Controls(escrowInfo.Key) {
		log.Info("escrow account does not match the seed")
		return solana.ErrInvalidArgument
	}

	var header EscrowHeader
	if err := header.Unmarshal(escrowInfo.Data); err != nil {
		return err
	}
	if !destinationInfo.Is(header.Destination) {
		log.Info("destination token account does not match the escrow")
		return solana.ErrInvalidArgument
	}

	if !destinationOwnerInfo.IsSigner {
		log.Info("destination token account owner must sign")
		return solana.ErrInvalidArgument
	}

	var destination token.Account
	if !destination.Unmarshal(destinationInfo.Data) {
		return solana.ErrInvalidAccountData
	}
	if !bytes.Equal(destination.Owner, destinationOwnerInfo.Key) {
		log.Info("destination token account is not owned by the signer")
		return solana.ErrInvalidArgument
	}

	if err := PatchDestination(escrowInfo.Data, newDestinationInfo.Key); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"escrow":          base58.Encode(escrowInfo.Key),
		"new_destination": base58.Encode(newDestinationInfo.Key),
	}).Debug("destination changed")
	return nil
}
