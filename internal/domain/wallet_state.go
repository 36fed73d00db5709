package domain

import "strings"

// WalletState is an exchange-reported transfer condition for one asset.
type WalletState string

const (
	WalletStateWorking           WalletState = "working"
	WalletStateWithdrawSuspended WalletState = "withdraw_suspended"
	WalletStateDepositSuspended  WalletState = "deposit_suspended"
	WalletStateInactive          WalletState = "inactive"
	WalletStateUnknown           WalletState = "unknown"
)

// ParseWalletState maps a raw feed value onto a WalletState.
func ParseWalletState(s string) WalletState {
	switch WalletState(strings.ToLower(strings.TrimSpace(s))) {
	case WalletStateWorking:
		return WalletStateWorking
	case WalletStateWithdrawSuspended:
		return WalletStateWithdrawSuspended
	case WalletStateDepositSuspended:
		return WalletStateDepositSuspended
	case WalletStateInactive:
		return WalletStateInactive
	default:
		return WalletStateUnknown
	}
}

// AssetStatus is one entry of the status side-channel.
type AssetStatus struct {
	Symbol string
	State  WalletState
}

// RestrictionNote annotates a spread record with the asset's transfer condition.
type RestrictionNote string

const (
	RestrictionNormal            RestrictionNote = "Normal"
	RestrictionWithdrawSuspended RestrictionNote = "WithdrawSuspended"
	RestrictionDepositSuspended  RestrictionNote = "DepositSuspended"
	RestrictionFullySuspended    RestrictionNote = "FullySuspended"
)

// Restricted reports whether the note blocks realizing the spread.
func (n RestrictionNote) Restricted() bool {
	return n != RestrictionNormal && n != ""
}

// Label is the operator-facing description used in alerts and tables.
func (n RestrictionNote) Label() string {
	switch n {
	case RestrictionWithdrawSuspended:
		return "withdrawals suspended"
	case RestrictionDepositSuspended:
		return "deposits suspended"
	case RestrictionFullySuspended:
		return "deposits and withdrawals suspended"
	default:
		return "normal"
	}
}

// RestrictionFor maps a wallet state to a note. Only positively observed
// restrictions are reported; anything else is Normal.
func RestrictionFor(s WalletState) RestrictionNote {
	switch s {
	case WalletStateWithdrawSuspended:
		return RestrictionWithdrawSuspended
	case WalletStateDepositSuspended:
		return RestrictionDepositSuspended
	case WalletStateInactive:
		return RestrictionFullySuspended
	default:
		return RestrictionNormal
	}
}
