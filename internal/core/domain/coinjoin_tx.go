package domain

// RegisterAccountParams is what the coordinator client needs to register an
// account for coinjoin.
type RegisterAccountParams struct {
	AccountKey            string
	ScriptType            string
	TargetAnonymity       int
	RawLiquidityClue      *uint64
	MaxRounds             int
	SkipRounds            *SkipRounds
	MaxFeePerKvbyte       uint64
	MaxCoordinatorFeeRate uint64
	Utxos                 []RegisterUtxo
	ChangeAddresses       []Address
}

// RegisterUtxo is an account utxo as registered with the coordinator.
type RegisterUtxo struct {
	Path           string
	Outpoint       string
	Address        string
	Amount         uint64
	AnonymityLevel int
}

// UpdateAccountParams is the patch sent to the coordinator whenever the
// account data changes during a session.
type UpdateAccountParams struct {
	Utxos           []RegisterUtxo
	ChangeAddresses []Address
}

// CoinjoinTransactionData is the transaction template sent by the
// coordinator when a round reaches the signing phase.
type CoinjoinTransactionData struct {
	Inputs           []CoinjoinTxInput
	Outputs          []CoinjoinTxOutput
	AffiliateRequest AffiliateRequest
}

// CoinjoinTxInput ...
type CoinjoinTxInput struct {
	Path           string
	Outpoint       string
	Hash           string
	Index          uint32
	Amount         int64
	ScriptPubKey   string
	OwnershipProof string
	CommitmentData string
}

// CoinjoinTxOutput ...
type CoinjoinTxOutput struct {
	Path    string
	Address string
	Amount  int64
}

// AffiliateRequest is the coordinator-signed data the device verifies before
// signing. CoinjoinFlags are index-aligned with the transaction inputs.
type AffiliateRequest struct {
	CoinjoinFlags        []int
	FeeRate              uint64
	NoFeeThreshold       uint64
	MinRegistrableAmount uint64
	MaskPublicKey        string
	Signature            string
}

// CoinjoinRequest is the affiliate data passed unchanged to the device.
type CoinjoinRequest struct {
	FeeRate              uint64
	NoFeeThreshold       uint64
	MinRegistrableAmount uint64
	MaskPublicKey        string
	Signature            string
}

// SignInput is an input of a device sign request. Internal inputs carry the
// derivation path, external ones the data needed to verify them.
type SignInput struct {
	ScriptType     string
	Path           string
	PrevHash       string
	PrevIndex      uint32
	Amount         int64
	ScriptPubKey   string
	OwnershipProof string
	CommitmentData string
	CoinjoinFlags  int
}

// IsExternal ...
func (i SignInput) IsExternal() bool {
	return i.ScriptType == InputScriptExternal
}

// SignOutput is an output of a device sign request.
type SignOutput struct {
	ScriptType string
	Path       string
	Address    string
	Amount     int64
}

// SignRequest is the wallet-signable version of a coinjoin transaction,
// profiled for a single account.
type SignRequest struct {
	AccountKey      string
	RoundID         string
	Inputs          []SignInput
	Outputs         []SignOutput
	CoinjoinRequest CoinjoinRequest
}

// SignResult holds the witnesses returned by the device for the internal
// inputs of a SignRequest, keyed by input index.
type SignResult struct {
	Witnesses map[int]string
}
