package solana

import "errors"

var (
	// ErrAccountNotFound is returned when getAccountInfo yields a null value.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnparsableMint is returned when account data is not a parsed SPL mint.
	ErrUnparsableMint = errors.New("unable to parse mint data")
)
