package application

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
)

// GetRegisterAccountParams returns the params to register the given account
// with the coordinator. Only confirmed utxos, within the amounts allowed by
// the coordinator (if its status is known), are included.
func GetRegisterAccountParams(
	account domain.Account,
	params domain.SessionParameters,
	rawLiquidityClue *uint64,
	status *domain.CoordinatorStatus,
) domain.RegisterAccountParams {
	scriptType := domain.ScriptTypeP2WPKH
	if account.IsTaproot() {
		scriptType = domain.ScriptTypeTaproot
	}

	utxos := make([]domain.RegisterUtxo, 0, len(account.Utxos))
	for _, u := range account.Utxos {
		if !u.IsConfirmed() {
			continue
		}
		amount, ok := parseSatoshis(u.Amount)
		if !ok {
			continue
		}
		if status != nil && !status.AllowedInputAmounts.Contains(amount) {
			continue
		}
		level, ok := account.Addresses.AnonymitySet[u.Address]
		if !ok {
			level = 1
		}
		utxos = append(utxos, domain.RegisterUtxo{
			Path:           u.Path,
			Outpoint:       u.Outpoint(),
			Address:        u.Address,
			Amount:         amount,
			AnonymityLevel: level,
		})
	}

	return domain.RegisterAccountParams{
		AccountKey:            account.Key,
		ScriptType:            scriptType,
		TargetAnonymity:       params.TargetAnonymity,
		RawLiquidityClue:      rawLiquidityClue,
		MaxRounds:             params.MaxRounds,
		SkipRounds:            params.SkipRounds,
		MaxFeePerKvbyte:       params.MaxFeePerKvbyte,
		MaxCoordinatorFeeRate: params.MaxCoordinatorFeeRate,
		Utxos:                 utxos,
		ChangeAddresses:       unusedChangeAddresses(account),
	}
}

// GetUpdateAccountParams returns the patch to send to the coordinator after
// the account data changed.
func GetUpdateAccountParams(
	account domain.Account, status *domain.CoordinatorStatus,
) domain.UpdateAccountParams {
	params := GetRegisterAccountParams(
		account, domain.SessionParameters{}, nil, status,
	)
	return domain.UpdateAccountParams{
		Utxos:           params.Utxos,
		ChangeAddresses: params.ChangeAddresses,
	}
}

// PrepareCoinjoinTransaction turns the transaction data sent by the
// coordinator into a request signable by the device for the given account.
// Inputs and outputs not owned by the account are marked as external. Any
// inconsistency in the data makes the whole transaction invalid.
func PrepareCoinjoinTransaction(
	account domain.Account,
	tx domain.CoinjoinTransactionData,
	roundID string,
	net *chaincfg.Params,
) (*domain.SignRequest, error) {
	flags := tx.AffiliateRequest.CoinjoinFlags
	if len(flags) != len(tx.Inputs) {
		return nil, fmt.Errorf(
			"%w: got %d affiliate flags for %d inputs",
			domain.ErrValidation, len(flags), len(tx.Inputs),
		)
	}

	inputScript, outputScript :=
		domain.InputScriptSpendWitness, domain.OutputScriptPayToWitness
	if account.IsTaproot() {
		inputScript, outputScript =
			domain.InputScriptSpendTaproot, domain.OutputScriptPayToTaproot
	}

	inputs := make([]domain.SignInput, 0, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if _, err := chainhash.NewHashFromStr(in.Hash); err != nil {
			return nil, fmt.Errorf(
				"%w: input %d has malformed prev hash", domain.ErrValidation, i,
			)
		}
		if in.Outpoint != domain.Outpoint(in.Hash, in.Index) {
			return nil, fmt.Errorf(
				"%w: input %d outpoint mismatch", domain.ErrValidation, i,
			)
		}
		if in.Amount <= 0 {
			return nil, fmt.Errorf(
				"%w: input %d has non positive amount", domain.ErrValidation, i,
			)
		}

		if _, ok := account.FindUtxoByOutpoint(in.Outpoint); ok && in.Path != "" {
			inputs = append(inputs, domain.SignInput{
				ScriptType:    inputScript,
				Path:          in.Path,
				PrevHash:      in.Hash,
				PrevIndex:     in.Index,
				Amount:        in.Amount,
				CoinjoinFlags: flags[i],
			})
			continue
		}
		inputs = append(inputs, domain.SignInput{
			ScriptType:     domain.InputScriptExternal,
			PrevHash:       in.Hash,
			PrevIndex:      in.Index,
			Amount:         in.Amount,
			ScriptPubKey:   in.ScriptPubKey,
			OwnershipProof: in.OwnershipProof,
			CommitmentData: in.CommitmentData,
			CoinjoinFlags:  flags[i],
		})
	}

	outputs := make([]domain.SignOutput, 0, len(tx.Outputs))
	for i, out := range tx.Outputs {
		if out.Amount <= 0 {
			return nil, fmt.Errorf(
				"%w: output %d has non positive amount", domain.ErrValidation, i,
			)
		}
		if err := validateAddress(out.Address, net); err != nil {
			return nil, fmt.Errorf("%w: output %d %s", domain.ErrValidation, i, err)
		}

		if out.Path != "" && account.IsChangeAddress(out.Address) {
			outputs = append(outputs, domain.SignOutput{
				ScriptType: outputScript,
				Path:       out.Path,
				Amount:     out.Amount,
			})
			continue
		}
		outputs = append(outputs, domain.SignOutput{
			ScriptType: domain.OutputScriptPayToAddress,
			Address:    out.Address,
			Amount:     out.Amount,
		})
	}

	req := tx.AffiliateRequest
	return &domain.SignRequest{
		AccountKey: account.Key,
		RoundID:    roundID,
		Inputs:     inputs,
		Outputs:    outputs,
		CoinjoinRequest: domain.CoinjoinRequest{
			FeeRate:              req.FeeRate,
			NoFeeThreshold:       req.NoFeeThreshold,
			MinRegistrableAmount: req.MinRegistrableAmount,
			MaskPublicKey:        req.MaskPublicKey,
			Signature:            req.Signature,
		},
	}, nil
}

// TransformCoinjoinStatus normalizes the status received from the
// coordinator: rounds with unknown phase are dropped and duplicated ones
// are squashed into the last received.
func TransformCoinjoinStatus(status domain.CoordinatorStatus) domain.CoordinatorStatus {
	index := make(map[string]int)
	rounds := make([]domain.Round, 0, len(status.Rounds))
	for _, r := range status.Rounds {
		if !r.Phase.IsValid() {
			continue
		}
		round := domain.Round{ID: r.ID, Phase: r.Phase}
		if i, ok := index[r.ID]; ok {
			rounds[i] = round
			continue
		}
		index[r.ID] = len(rounds)
		rounds = append(rounds, round)
	}
	status.Rounds = rounds
	return status
}

// AccountBreakdown returns the anonymized and non-anonymized balance of the
// account.
func AccountBreakdown(
	account domain.Account, targetAnonymity int,
) anonymity.Breakdown {
	return anonymity.BreakdownBalance(
		&targetAnonymity, account.Addresses.AnonymitySet, toAnonymityUtxos(account),
	)
}

// AccountProgress returns the anonymization progress of the account.
func AccountProgress(account domain.Account, targetAnonymity int) int {
	return anonymity.CalculateProgress(
		&targetAnonymity, account.Addresses.AnonymitySet, toAnonymityUtxos(account),
	)
}

func toAnonymityUtxos(account domain.Account) []anonymity.Utxo {
	utxos := make([]anonymity.Utxo, 0, len(account.Utxos))
	for _, u := range account.Utxos {
		utxos = append(utxos, anonymity.Utxo{Address: u.Address, Amount: u.Amount})
	}
	return utxos
}

func unusedChangeAddresses(account domain.Account) []domain.Address {
	addresses := make([]domain.Address, 0)
	for _, addr := range account.Addresses.Change {
		if addr.Transfers == 0 {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

func validateAddress(address string, net *chaincfg.Params) error {
	addr, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return fmt.Errorf("invalid address %s: %s", address, err)
	}
	if !addr.IsForNet(net) {
		return fmt.Errorf("address %s is not for network %s", address, net.Name)
	}
	return nil
}

func parseSatoshis(amount string) (uint64, bool) {
	d, err := decimal.NewFromString(amount)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return uint64(d.IntPart()), true
}
