package application

import "errors"

var (
	// ErrInsufficientFunds is returned when the spendable txos of an asset
	// cannot cover the requested amount plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds for the requested amount")
	// ErrInvalidRecipient is returned for a recipient with a malformed
	// address, an unknown asset or an amount below the dust threshold.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrNoRecipients ...
	ErrNoRecipients = errors.New("transaction has no recipients nor issuance")
	// ErrInvalidDrainAsset is returned when draining an asset other than the
	// network policy asset, whose leftover could not pay the fee.
	ErrInvalidDrainAsset = errors.New("only the policy asset can be drained")
	// ErrZeroIssuanceAmounts is returned when an issuance mints neither
	// assets nor reissuance tokens.
	ErrZeroIssuanceAmounts = errors.New("issuance must mint a positive amount of asset or token")
	// ErrIssuanceAmountOutOfRange is returned when an issuance or reissuance
	// would mint more units than the maximum representable supply.
	ErrIssuanceAmountOutOfRange = errors.New("issuance amount exceeds the maximum supply")
	// ErrDustChange is returned when the leftover of a non-policy asset is
	// below the dust threshold and cannot be absorbed into the fee.
	ErrDustChange = errors.New("change amount below dust threshold")
	// ErrFeeEstimationLoop is returned when fee estimation does not converge.
	ErrFeeEstimationLoop = errors.New("fee estimation did not converge")
	// ErrWalletNotSynced ...
	ErrWalletNotSynced = errors.New("wallet has never been synced")
)
