package engine

import (
	"errors"
	"fmt"
)

// ErrNoDepositLine is returned by DepositPlug when a settlement does not
// balance and no "Bank Deposit" line exists to absorb the difference. The
// settlement is flagged unbalanced rather than silently patched.
var ErrNoDepositLine = errors.New("no bank deposit line to absorb balance difference")

// MalformedAmountError marks a token that could not be parsed as an amount.
// Recoverable: callers treat the value as zero and log the token against the
// row's lineage.
type MalformedAmountError struct {
	Token string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q", e.Token)
}

// UnmappedAccountError marks a GL account name with no external ledger
// account id. It must block posting downstream but never stops journal
// computation.
type UnmappedAccountError struct {
	Account string
}

func (e *UnmappedAccountError) Error() string {
	return fmt.Sprintf("gl account %q has no external account mapping", e.Account)
}
