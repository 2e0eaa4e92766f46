package domain

import "errors"

var (
	// ErrUnknownEnvironment is returned when parsing an environment that is
	// neither production, staging nor development.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrInvalidSubaccount is returned when a subaccount has an unknown
	// environment tag or a nonce that does not fit 64 bits.
	ErrInvalidSubaccount = errors.New("invalid subaccount")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid account identifier")
	// ErrInvalidKeyLength is returned when the public key is not 33 bytes long.
	ErrInvalidKeyLength = errors.New("invalid public key length")
	// ErrInvalidPublicKey is returned when the public key is not a point on the
	// secp256k1 curve.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrPublicKeyAlreadySet ...
	ErrPublicKeyAlreadySet = errors.New("public key already set")
	// ErrMissingPublicKey is returned when deriving an address that needs the
	// ECDSA public key before it is set.
	ErrMissingPublicKey = errors.New("missing public key")
	// ErrUnknownChainKind ...
	ErrUnknownChainKind = errors.New("unknown chain kind")
	// ErrChainNotFound is returned when removing or looking up a chain that is
	// not bound to the account.
	ErrChainNotFound = errors.New("chain not found")
	// ErrChainNotBound ...
	ErrChainNotBound = errors.New("chain not bound to account")
	// ErrChainIDNotInitialized is returned for EVM operations on a chain id
	// the account has not bound.
	ErrChainIDNotInitialized = errors.New("evm chain id not initialized")
	// ErrBridgeNotInitialized is returned for bridge operations on a chain that
	// is not a bridge chain or that is not bound.
	ErrBridgeNotInitialized = errors.New("bridge chain not initialized")
	// ErrEmptyPendingHandle ...
	ErrEmptyPendingHandle = errors.New("pending transfer handle must not be empty")

	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists ...
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrCannotRemoveDefaultAccount ...
	ErrCannotRemoveDefaultAccount = errors.New("default account cannot be removed")
	// ErrInvalidAccountName ...
	ErrInvalidAccountName = errors.New("account name must not be empty")
	// ErrWalletNotInitialized is returned by repositories when no wallet has
	// been stored yet.
	ErrWalletNotInitialized = errors.New("wallet not initialized")
	// ErrInvalidOwner ...
	ErrInvalidOwner = errors.New("wallet owner must not be empty")

	// ErrForbidden is returned when the caller role does not satisfy the one
	// required by a request.
	ErrForbidden = errors.New("caller is not allowed to perform this operation")
	// ErrRequestNotFound ...
	ErrRequestNotFound = errors.New("request not found")
	// ErrRequestExpired ...
	ErrRequestExpired = errors.New("request expired")
	// ErrRequestAlreadyExecuted ...
	ErrRequestAlreadyExecuted = errors.New("request already executed")
	// ErrRequestInProgress is returned when executing a request that another
	// caller is already executing.
	ErrRequestInProgress = errors.New("request execution in progress")
	// ErrRequestInterrupted is the error recorded for requests whose
	// execution never reported an outcome.
	ErrRequestInterrupted = errors.New("request execution interrupted")
	// ErrInvalidDeadline is returned when submitting a request with a deadline
	// in the past.
	ErrInvalidDeadline = errors.New("request deadline must be in the future")
	// ErrInvalidOperation ...
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidRole ...
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidMetadataKey ...
	ErrInvalidMetadataKey = errors.New("metadata key must not be empty")
)
