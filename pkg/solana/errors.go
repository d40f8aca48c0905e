package solana

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorInternal TransactionErrorKey = "Internal" // Internal error

	TransactionErrorAccountInUse           TransactionErrorKey = "AccountInUse"           // An account is already being processed in another transaction in a way that does not support parallelism
	TransactionErrorAccountLoadedTwice     TransactionErrorKey = "AccountLoadedTwice"     // A `Pubkey` appears twice in the transaction's `account_keys`.
	TransactionErrorAccountNotFound        TransactionErrorKey = "AccountNotFound"        // Attempt to debit an account but found no record of a prior credit.
	TransactionErrorProgramAccountNotFound TransactionErrorKey = "ProgramAccountNotFound" // Attempt to load a program that does not exist
	TransactionErrorInstructionError       TransactionErrorKey = "InstructionError"       // An error occurred while processing an instruction.
	TransactionErrorMissingSignatureForFee TransactionErrorKey = "MissingSignatureForFee" // Transaction requires a fee but has no signature present
	TransactionErrorInvalidAccountIndex    TransactionErrorKey = "InvalidAccountIndex"    // Transaction contains an invalid account reference
	TransactionErrorSignatureFailure       TransactionErrorKey = "SignatureFailure"       // Transaction did not pass signature verification
	TransactionErrorSanitizeFailure        TransactionErrorKey = "SanitizeFailure"        // Transaction failed to sanitize accounts offsets correctly
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError                InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument             InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData      InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData          InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall         InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds           InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID          InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature    InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized   InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount        InstructionErrorKey = "UninitializedAccount"
	InstructionErrorExternalAccountDataModified InstructionErrorKey = "ExternalAccountDataModified"
	InstructionErrorReadonlyDataModified        InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorNotEnoughAccountKeys        InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorCustom                      InstructionErrorKey = "Custom"
	InstructionErrorUnsupportedProgramID        InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorCallDepth                   InstructionErrorKey = "CallDepth"
	InstructionErrorMissingAccount              InstructionErrorKey = "MissingAccount"
	InstructionErrorReentrancyNotAllowed        InstructionErrorKey = "ReentrancyNotAllowed"
	InstructionErrorInvalidSeeds                InstructionErrorKey = "InvalidSeeds"
	InstructionErrorModifiedProgramID           InstructionErrorKey = "ModifiedProgramId"
	InstructionErrorExternalAccountLamportSpend InstructionErrorKey = "ExternalAccountLamportSpend"
	InstructionErrorReadonlyLamportChange       InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorExecutableModified          InstructionErrorKey = "ExecutableModified"
	InstructionErrorUnbalancedInstruction       InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorPrivilegeEscalation         InstructionErrorKey = "PrivilegeEscalation"
)

// ProgramError is a builtin (non-custom) error returned by a program while
// processing an instruction.
type ProgramError InstructionErrorKey

func (e ProgramError) Error() string {
	return string(e)
}

// Key returns the instruction error key the program error is reported as.
func (e ProgramError) Key() InstructionErrorKey {
	return InstructionErrorKey(e)
}

var (
	ErrGenericError                = ProgramError(InstructionErrorGenericError)
	ErrInvalidArgument             = ProgramError(InstructionErrorInvalidArgument)
	ErrInvalidInstructionData      = ProgramError(InstructionErrorInvalidInstructionData)
	ErrInvalidAccountData          = ProgramError(InstructionErrorInvalidAccountData)
	ErrAccountDataTooSmall         = ProgramError(InstructionErrorAccountDataTooSmall)
	ErrInsufficientFunds           = ProgramError(InstructionErrorInsufficientFunds)
	ErrIncorrectProgramID          = ProgramError(InstructionErrorIncorrectProgramID)
	ErrMissingRequiredSignature    = ProgramError(InstructionErrorMissingRequiredSignature)
	ErrAccountAlreadyInitialized   = ProgramError(InstructionErrorAccountAlreadyInitialized)
	ErrUninitializedAccount        = ProgramError(InstructionErrorUninitializedAccount)
	ErrExternalAccountDataModified = ProgramError(InstructionErrorExternalAccountDataModified)
	ErrReadonlyDataModified        = ProgramError(InstructionErrorReadonlyDataModified)
	ErrNotEnoughAccountKeys        = ProgramError(InstructionErrorNotEnoughAccountKeys)
	ErrUnsupportedProgramID        = ProgramError(InstructionErrorUnsupportedProgramID)
	ErrCallDepth                   = ProgramError(InstructionErrorCallDepth)
	ErrMissingAccount              = ProgramError(InstructionErrorMissingAccount)
	ErrReentrancyNotAllowed        = ProgramError(InstructionErrorReentrancyNotAllowed)
	ErrInvalidSeeds                = ProgramError(InstructionErrorInvalidSeeds)
	ErrModifiedProgramID           = ProgramError(InstructionErrorModifiedProgramID)
	ErrExternalAccountLamportSpend = ProgramError(InstructionErrorExternalAccountLamportSpend)
	ErrReadonlyLamportChange       = ProgramError(InstructionErrorReadonlyLamportChange)
	ErrExecutableModified          = ProgramError(InstructionErrorExecutableModified)
	ErrUnbalancedInstruction       = ProgramError(InstructionErrorUnbalancedInstruction)
	ErrPrivilegeEscalation         = ProgramError(InstructionErrorPrivilegeEscalation)
)

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) Unwrap() error {
	return i.Err
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	if i.CustomError() != nil {
		return InstructionErrorCustom
	}

	var pe ProgramError
	if errors.As(i.Err, &pe) {
		return pe.Key()
	}

	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) JSONString() string {
	if ce := i.CustomError(); ce != nil {
		return fmt.Sprintf(`[%d, {"%s": %d}]`, i.Index, InstructionErrorCustom, *ce)
	}

	return fmt.Sprintf(`[%d, "%s"]`, i.Index, i.ErrorKey())
}

func (i InstructionError) CustomError() *CustomError {
	var ce CustomError
	if errors.As(i.Err, &ce) {
		return &ce
	}

	return nil
}

// TransactionError contains the transaction error details.
type TransactionError struct {
	transactionError error
	instructionError *InstructionError
	raw              interface{}
}

// NewTransactionError returns a transaction level error, such as a signature
// failure, that is not attributed to any instruction.
func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{
		transactionError: errors.New(string(key)),
		raw:              string(key),
	}
}

// TransactionErrorFromInstructionError wraps a failed instruction the way an
// RPC node reports it: {"InstructionError":[index, key]}.
func TransactionErrorFromInstructionError(err *InstructionError) (*TransactionError, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(err.JSONString()), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to generate raw value")
	}

	return &TransactionError{
		transactionError: errors.New(string(TransactionErrorInstructionError)),
		instructionError: err,
		raw: map[string]interface{}{
			string(TransactionErrorInstructionError): raw,
		},
	}, nil
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}

	if t.transactionError != nil {
		return t.transactionError.Error()
	}

	return ""
}

func (t TransactionError) Unwrap() error {
	if t.instructionError != nil {
		return *t.instructionError
	}
	return nil
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	if t.transactionError == nil {
		return ""
	}

	return TransactionErrorKey(t.transactionError.Error())
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instructionError
}

// JSONString returns the error in the JSON shape of the RPC "err" field.
func (t TransactionError) JSONString() (string, error) {
	b, err := json.Marshal(t.raw)
	return string(b), err
}
