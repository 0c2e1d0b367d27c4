package domain

// Account statuses.
const (
	AccountStatusInitial   AccountStatus = "initial"
	AccountStatusLoaded    AccountStatus = "loaded"
	AccountStatusReady     AccountStatus = "ready"
	AccountStatusOutOfSync AccountStatus = "out-of-sync"
	AccountStatusError     AccountStatus = "error"
	AccountStatusSyncing   AccountStatus = "syncing"
)

// Account backend types.
const (
	BackendTypeCoinjoin  = "coinjoin"
	BackendTypeBlockbook = "blockbook"
)

// BIP43 purposes used to select the script type of an account.
const (
	PurposeBIP84  = 84
	PurposeBIP86  = 86
	PurposeSLIP25 = 10025
)

// Script types used for registration.
const (
	ScriptTypeTaproot = "Taproot"
	ScriptTypeP2WPKH  = "P2WPKH"
)

// Script types of a device sign request.
const (
	InputScriptSpendWitness  = "SPENDWITNESS"
	InputScriptSpendTaproot  = "SPENDTAPROOT"
	InputScriptExternal      = "EXTERNAL"
	OutputScriptPayToWitness = "PAYTOWITNESS"
	OutputScriptPayToTaproot = "PAYTOTAPROOT"
	OutputScriptPayToAddress = "PAYTOADDRESS"
)
