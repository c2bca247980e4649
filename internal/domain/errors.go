package domain

import "fmt"

// Kind names a ledger failure so clients can branch on the cause.
type Kind string

const (
	KindUnauthorized                Kind = "Unauthorized"
	KindNotFound                    Kind = "NotFound"
	KindDuplicateID                 Kind = "DuplicateId"
	KindNotListed                   Kind = "NotListed"
	KindWrongAmount                 Kind = "WrongAmount"
	KindInsufficientSharesAvailable Kind = "InsufficientSharesAvailable"
	KindInsufficientBalance         Kind = "InsufficientBalance"
	KindSellerNotSet                Kind = "SellerNotSet"
	KindNothingToWithdraw           Kind = "NothingToWithdraw"
	KindNotBuyer                    Kind = "NotBuyer"
	KindInsufficientFunds           Kind = "InsufficientFunds"
	KindInvalidArgument             Kind = "InvalidArgument"
)

// LedgerError is returned by every ledger operation that is rejected.
// Two LedgerErrors match under errors.Is when their kinds are equal.
type LedgerError struct {
	Kind    Kind
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.Kind == e.Kind
}

// Errorf builds a LedgerError of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &LedgerError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUnauthorized                = &LedgerError{Kind: KindUnauthorized, Message: "caller is not authorized"}
	ErrNotFound                    = &LedgerError{Kind: KindNotFound, Message: "record not found"}
	ErrDuplicateID                 = &LedgerError{Kind: KindDuplicateID, Message: "id already exists"}
	ErrNotListed                   = &LedgerError{Kind: KindNotListed, Message: "Property is not listed for sale"}
	ErrWrongAmount                 = &LedgerError{Kind: KindWrongAmount, Message: "payment does not match price"}
	ErrInsufficientSharesAvailable = &LedgerError{Kind: KindInsufficientSharesAvailable, Message: "Insufficient shares available"}
	ErrInsufficientBalance         = &LedgerError{Kind: KindInsufficientBalance, Message: "Not enough shares to transfer"}
	ErrSellerNotSet                = &LedgerError{Kind: KindSellerNotSet, Message: "Seller not set"}
	ErrNothingToWithdraw           = &LedgerError{Kind: KindNothingToWithdraw, Message: "Nothing to withdraw"}
	ErrNotBuyer                    = &LedgerError{Kind: KindNotBuyer, Message: "Only buyer can deposit"}
	ErrInsufficientFunds           = &LedgerError{Kind: KindInsufficientFunds, Message: "Insufficient funds"}
	ErrInvalidArgument             = &LedgerError{Kind: KindInvalidArgument, Message: "invalid argument"}
)
