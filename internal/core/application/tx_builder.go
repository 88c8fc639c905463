package application

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/estimator"
	"github.com/tdex-network/liquid-wallet/pkg/unblinder"
	"github.com/vulpemventures/go-elements/address"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/pset"
	"github.com/vulpemventures/go-elements/transaction"
)

// maxFeeIterations bounds the select-estimate loop of Finish.
const maxFeeIterations = 100

// Recipient is an amount of an asset paid to an address.
type Recipient struct {
	Asset   string
	Amount  uint64
	Address string
}

// UnsignedTx is the outcome of a transaction build: an unblinded, unsigned
// pset along with everything a signer needs to blind and sign it. The
// selected txos stay locked under SessionID until the transaction is
// broadcast or the session is released.
type UnsignedTx struct {
	PsetBase64         string
	SelectedTxos       []domain.TxoKey
	OutputBlindingKeys map[int][]byte
	FeeAmount          uint64
	ChangeAmounts      map[string]uint64
	SessionID          uuid.UUID
}

type issuanceRequest struct {
	assetAmount  uint64
	tokenAmount  uint64
	assetAddress string
	tokenAddress string
}

type reissuanceRequest struct {
	tokenAsset   string
	entropy      string
	assetAmount  uint64
	assetAddress string
}

// TxBuilder accumulates the intents of a transaction and assembles them into
// an UnsignedTx with Finish. It is not safe for concurrent use; build one
// per transaction.
type TxBuilder struct {
	store       *domain.Store
	net         *network.Network
	dustAmount  uint64
	msatPerByte int

	recipients []Recipient
	burns      []Recipient
	drainTo    string
	drainAsset string
	manual     []domain.TxoKey
	external   []*domain.Txo
	issuance   *issuanceRequest
	reissuance *reissuanceRequest
}

func newTxBuilder(
	store *domain.Store, net *network.Network, dustAmount uint64, msatPerByte int,
) *TxBuilder {
	return &TxBuilder{
		store:       store,
		net:         net,
		dustAmount:  dustAmount,
		msatPerByte: msatPerByte,
	}
}

// AddRecipient pays amount of asset to the given address. Confidential
// addresses get their blinding key reported in the build result.
func (b *TxBuilder) AddRecipient(asset string, amount uint64, addr string) *TxBuilder {
	b.recipients = append(b.recipients, Recipient{asset, amount, addr})
	return b
}

// SendAll drains the whole spendable balance of the given asset, minus the
// fee, to the given address. Only the fee-paying asset can be drained since
// any other one cannot absorb the fee.
func (b *TxBuilder) SendAll(asset, addr string) *TxBuilder {
	b.drainAsset = asset
	b.drainTo = addr
	return b
}

// SelectUtxos spends exactly the given wallet outpoints instead of running
// automatic coin selection. The build fails with ErrInsufficientFunds when
// they do not cover recipients plus fee, it is never augmented.
func (b *TxBuilder) SelectUtxos(keys ...domain.TxoKey) *TxBuilder {
	b.manual = append(b.manual, keys...)
	return b
}

// AddExternalUtxo adds an input owned by another wallet, carrying its own
// unblinded secrets. Its funds count towards the recipients of its asset and
// the input is left unsigned for its owner. The txo is not locked in the
// store since the store does not know it.
func (b *TxBuilder) AddExternalUtxo(txo *domain.Txo) *TxBuilder {
	b.external = append(b.external, txo)
	return b
}

// Burn provably destroys amount of asset with an OP_RETURN output.
func (b *TxBuilder) Burn(asset string, amount uint64) *TxBuilder {
	b.burns = append(b.burns, Recipient{Asset: asset, Amount: amount})
	return b
}

// Issue mints a brand new asset and optionally its reissuance token. The
// asset id is derived from the first selected outpoint and can be read from
// the built transaction.
func (b *TxBuilder) Issue(
	assetAmount, tokenAmount uint64, assetAddr, tokenAddr string,
) *TxBuilder {
	b.issuance = &issuanceRequest{assetAmount, tokenAmount, assetAddr, tokenAddr}
	return b
}

// Reissue mints more of an asset previously issued with a reissuance token
// the wallet holds. entropy is the issuance entropy of the original mint.
func (b *TxBuilder) Reissue(
	tokenAsset, entropy string, assetAmount uint64, assetAddr string,
) *TxBuilder {
	b.reissuance = &reissuanceRequest{tokenAsset, entropy, assetAmount, assetAddr}
	return b
}

// WithFeeRate overrides the default fee rate, expressed in millisatoshis per
// virtual byte.
func (b *TxBuilder) WithFeeRate(msatPerByte int) *TxBuilder {
	b.msatPerByte = msatPerByte
	return b
}

// parsedRecipient is a recipient with its address resolved to script and
// optional blinding key.
type parsedRecipient struct {
	asset       string
	amount      uint64
	script      []byte
	blindingKey []byte
}

// selection is one converged outcome of coin selection at a given fee. The
// reissuance token txo is kept apart from the generic coins: its input and
// the token output re-emitting its full amount are owned by the reissuance
// itself.
type selection struct {
	coins   []*domain.Txo
	token   *domain.Txo
	changes map[string]uint64
	fee     uint64
}

// Finish validates the accumulated intents, selects coins, iterates the fee
// estimation to convergence and returns the unsigned transaction. The
// selected txos are locked; callers must release them with the wallet
// service if the transaction is abandoned.
func (b *TxBuilder) Finish() (*UnsignedTx, error) {
	if len(b.recipients) == 0 && len(b.burns) == 0 && b.drainTo == "" &&
		b.issuance == nil && b.reissuance == nil {
		return nil, ErrNoRecipients
	}
	if b.issuance != nil {
		if b.issuance.assetAmount == 0 && b.issuance.tokenAmount == 0 {
			return nil, ErrZeroIssuanceAmounts
		}
		if b.issuance.assetAmount > unblinder.MaxSatoshi ||
			b.issuance.tokenAmount > unblinder.MaxSatoshi {
			return nil, ErrIssuanceAmountOutOfRange
		}
	}
	if b.reissuance != nil {
		if b.reissuance.assetAmount == 0 {
			return nil, ErrZeroIssuanceAmounts
		}
		if b.reissuance.assetAmount > unblinder.MaxSatoshi {
			return nil, ErrIssuanceAmountOutOfRange
		}
	}
	if b.drainTo != "" && b.drainAsset != b.net.AssetID {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDrainAsset, b.drainAsset)
	}

	recipients, err := b.parseRecipients()
	if err != nil {
		return nil, err
	}
	drainScript, drainBlindingKey, err := b.parseDrain()
	if err != nil {
		return nil, err
	}

	available := b.store.SpendableTxos()
	sel, err := b.converge(available, recipients)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	keys := make([]domain.TxoKey, 0, len(sel.coins)+1)
	for _, txo := range sel.coins {
		keys = append(keys, txo.Key())
	}
	if sel.token != nil {
		keys = append(keys, sel.token.Key())
	}
	if err := b.store.LockTxos(keys, sessionID); err != nil {
		return nil, err
	}

	unsigned, err := b.assemble(sel, recipients, drainScript, drainBlindingKey)
	if err != nil {
		b.store.UnlockTxos(keys)
		return nil, err
	}
	unsigned.SelectedTxos = keys
	unsigned.SessionID = sessionID
	return unsigned, nil
}

func (b *TxBuilder) parseRecipients() ([]parsedRecipient, error) {
	parsed := make([]parsedRecipient, 0, len(b.recipients)+len(b.burns))
	for _, r := range b.recipients {
		if len(r.Asset) != 64 {
			return nil, fmt.Errorf("%w: malformed asset %q", ErrInvalidRecipient, r.Asset)
		}
		if r.Amount < b.dustAmount {
			return nil, fmt.Errorf(
				"%w: amount %d below dust threshold %d",
				ErrInvalidRecipient, r.Amount, b.dustAmount,
			)
		}
		script, blindingKey, err := parseAddress(r.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, err)
		}
		parsed = append(parsed, parsedRecipient{r.Asset, r.Amount, script, blindingKey})
	}
	for _, burn := range b.burns {
		if burn.Amount == 0 {
			return nil, fmt.Errorf("%w: zero burn amount", ErrInvalidRecipient)
		}
		parsed = append(parsed, parsedRecipient{
			asset:  burn.Asset,
			amount: burn.Amount,
			script: []byte{opReturn},
		})
	}
	return parsed, nil
}

func (b *TxBuilder) parseDrain() ([]byte, []byte, error) {
	if b.drainTo == "" {
		return nil, nil, nil
	}
	script, blindingKey, err := parseAddress(b.drainTo)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, err)
	}
	return script, blindingKey, nil
}

// parseAddress resolves an address to its output script and, when the
// address is confidential, the recipient blinding key.
func parseAddress(addr string) ([]byte, []byte, error) {
	script, err := address.ToOutputScript(addr)
	if err != nil {
		return nil, nil, err
	}
	if ctAddr, err := address.FromConfidential(addr); err == nil {
		return script, ctAddr.BlindingKey, nil
	}
	return script, nil, nil
}

// converge runs coin selection and fee estimation until the fee is stable.
func (b *TxBuilder) converge(
	available []*domain.Txo, recipients []parsedRecipient,
) (*selection, error) {
	fee := uint64(0)
	for i := 0; i < maxFeeIterations; i++ {
		sel, err := b.selectAll(available, recipients, fee)
		if err != nil {
			return nil, err
		}
		vsize := b.estimateVSize(sel, recipients)
		newFee := estimator.FeeAmount(vsize, b.msatPerByte)
		if newFee <= fee {
			return sel, nil
		}
		fee = newFee
	}
	return nil, ErrFeeEstimationLoop
}

// selectAll picks coins covering every asset target at the given fee and
// computes the change amounts. A policy-asset leftover below dust is
// absorbed into the fee; for any other asset it is an error since Elements
// conserves amounts per asset.
func (b *TxBuilder) selectAll(
	available []*domain.Txo, recipients []parsedRecipient, fee uint64,
) (*selection, error) {
	policyAsset := b.net.AssetID

	// the reissuance token txo is reserved before anything else so that
	// generic selection can never pick it as a plain input
	var token *domain.Txo
	if b.reissuance != nil {
		var err error
		token, available, err = b.pickTokenTxo(available)
		if err != nil {
			return nil, err
		}
	}

	externalSums := make(map[string]uint64)
	for _, txo := range b.external {
		externalSums[txo.Secrets.AssetHash] += txo.Secrets.Value
	}

	targets := make(map[string]uint64)
	for _, r := range recipients {
		targets[r.asset] += r.amount
	}
	if b.drainTo != "" {
		total := externalSums[policyAsset]
		for _, txo := range available {
			if txo.Secrets.AssetHash == policyAsset {
				total += txo.Secrets.Value
			}
		}
		if total < targets[policyAsset]+fee+b.dustAmount {
			return nil, fmt.Errorf(
				"%w: draining %d, needed at least %d",
				ErrInsufficientFunds, total, targets[policyAsset]+fee+b.dustAmount,
			)
		}
		targets[policyAsset] = total
	} else {
		targets[policyAsset] += fee
	}
	// external funds of assets nobody asked for come back as change
	for asset := range externalSums {
		if _, ok := targets[asset]; !ok {
			targets[asset] = 0
		}
	}

	if len(b.manual) > 0 {
		manual := b.manual
		if token != nil {
			// naming the token outpoint by hand is allowed, the reissuance
			// spends it either way
			manual = make([]domain.TxoKey, 0, len(b.manual))
			for _, key := range b.manual {
				if key != token.Key() {
					manual = append(manual, key)
				}
			}
		}
		sel, err := b.selectManual(manual, available, externalSums, targets, fee)
		if err != nil {
			return nil, err
		}
		sel.token = token
		return sel, nil
	}

	sel := &selection{token: token, changes: make(map[string]uint64), fee: fee}
	for asset, target := range targets {
		var coins []*domain.Txo
		var leftover uint64
		if ext := externalSums[asset]; ext >= target {
			leftover = ext - target
		} else {
			var err error
			coins, leftover, err = selectCoins(available, asset, target-ext)
			if err != nil {
				return nil, err
			}
		}
		sel.coins = append(sel.coins, coins...)
		if err := b.settleLeftover(sel, asset, leftover); err != nil {
			return nil, err
		}
	}
	// an issuance still needs an anchor input for its entropy; a reissuance
	// is anchored by its token input
	if len(sel.coins) == 0 && len(b.external) == 0 && sel.token == nil {
		coins, leftover, err := selectCoins(available, policyAsset, 1)
		if err != nil {
			return nil, err
		}
		sel.coins = coins
		sel.changes[policyAsset] = leftover
	}
	return sel, nil
}

// selectManual uses exactly the caller-picked outpoints, no augmentation.
func (b *TxBuilder) selectManual(
	manual []domain.TxoKey,
	available []*domain.Txo,
	externalSums, targets map[string]uint64,
	fee uint64,
) (*selection, error) {
	byKey := make(map[domain.TxoKey]*domain.Txo, len(available))
	for _, txo := range available {
		byKey[txo.Key()] = txo
	}

	sel := &selection{changes: make(map[string]uint64), fee: fee}
	sums := make(map[string]uint64, len(externalSums))
	for asset, sum := range externalSums {
		sums[asset] = sum
	}
	for _, key := range manual {
		txo, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf(
				"%w: utxo %s:%d is not spendable", ErrInsufficientFunds, key.TxID, key.VOut,
			)
		}
		sel.coins = append(sel.coins, txo)
		sums[txo.Secrets.AssetHash] += txo.Secrets.Value
	}

	for asset, target := range targets {
		sum := sums[asset]
		if sum < target {
			return nil, fmt.Errorf(
				"%w: selected %d of asset %s, target %d",
				ErrInsufficientFunds, sum, asset, target,
			)
		}
		if err := b.settleLeftover(sel, asset, sum-target); err != nil {
			return nil, err
		}
	}
	// selected coins of assets nobody asked for come back in full
	for asset, sum := range sums {
		if _, ok := targets[asset]; ok {
			continue
		}
		if err := b.settleLeftover(sel, asset, sum); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// settleLeftover books a selection leftover as change, absorbing sub-dust
// policy amounts into the fee. A sub-dust leftover of any other asset is an
// error since Elements conserves amounts per asset.
func (b *TxBuilder) settleLeftover(sel *selection, asset string, leftover uint64) error {
	if leftover == 0 {
		return nil
	}
	if leftover < b.dustAmount {
		if asset != b.net.AssetID {
			return fmt.Errorf("%w: %d of asset %s", ErrDustChange, leftover, asset)
		}
		sel.fee += leftover
		return nil
	}
	sel.changes[asset] = leftover
	return nil
}

// pickTokenTxo chooses exactly one reissuance token txo, largest first with
// the outpoint as deterministic tie-break, and returns it along with the
// remaining spendable txos. A reissuance re-emits only its own token input's
// amount, so spending several token txos at once would destroy token units.
func (b *TxBuilder) pickTokenTxo(
	available []*domain.Txo,
) (*domain.Txo, []*domain.Txo, error) {
	var token *domain.Txo
	for _, txo := range available {
		if txo.Secrets.AssetHash != b.reissuance.tokenAsset {
			continue
		}
		if token == nil ||
			txo.Secrets.Value > token.Secrets.Value ||
			(txo.Secrets.Value == token.Secrets.Value &&
				(txo.TxID < token.TxID ||
					(txo.TxID == token.TxID && txo.VOut < token.VOut))) {
			token = txo
		}
	}
	if token == nil {
		return nil, nil, fmt.Errorf(
			"%w: no reissuance token %s", ErrInsufficientFunds, b.reissuance.tokenAsset,
		)
	}

	rest := make([]*domain.Txo, 0, len(available)-1)
	for _, txo := range available {
		if txo != token {
			rest = append(rest, txo)
		}
	}
	return token, rest, nil
}

func (b *TxBuilder) estimateVSize(sel *selection, recipients []parsedRecipient) int {
	inType := estimator.P2WPKH
	witnessSize := 0
	if b.store.Descriptor().Template() == descriptor.WSHMulti {
		inType = estimator.P2WSH
		witnessSize = estimator.MultisigWitnessSize(
			b.store.Descriptor().Threshold(), b.store.Descriptor().NumKeys(),
		)
	}
	ins := make([]estimator.Input, 0, len(sel.coins)+len(b.external)+1)
	for range sel.coins {
		ins = append(ins, estimator.Input{Type: inType, WitnessSize: witnessSize})
	}
	if sel.token != nil {
		ins = append(ins, estimator.Input{Type: inType, WitnessSize: witnessSize})
	}
	// external inputs are signed by their owner, assume the common segwit case
	for range b.external {
		ins = append(ins, estimator.Input{Type: estimator.P2WPKH})
	}

	numOuts := len(recipients) + len(sel.changes)
	if b.drainTo != "" {
		numOuts++
	}
	if b.issuance != nil {
		numOuts++
		if b.issuance.tokenAmount > 0 {
			numOuts++
		}
	}
	if b.reissuance != nil {
		numOuts += 2
	}
	outs := make([]estimator.Output, numOuts)
	if b.store.Descriptor().Template() == descriptor.WSHMulti {
		// change outputs pay back to the wallet's own P2WSH scripts
		for i := numOuts - len(sel.changes); i < numOuts; i++ {
			outs[i].Type = estimator.P2WSH
		}
	}
	return estimator.EstimateVSize(ins, outs)
}

// assemble turns a converged selection into the final pset.
func (b *TxBuilder) assemble(
	sel *selection,
	recipients []parsedRecipient,
	drainScript, drainBlindingKey []byte,
) (*UnsignedTx, error) {
	ptx, err := pset.New([]*transaction.TxInput{}, []*transaction.TxOutput{}, 2, 0)
	if err != nil {
		return nil, err
	}
	updater, err := pset.NewUpdater(ptx)
	if err != nil {
		return nil, err
	}

	inputs := make([]*domain.Txo, 0, len(sel.coins)+len(b.external))
	inputs = append(inputs, sel.coins...)
	inputs = append(inputs, b.external...)
	for _, txo := range inputs {
		prevoutHash, err := bufferutil.TxIDToBytes(txo.TxID)
		if err != nil {
			return nil, err
		}
		updater.AddInput(transaction.NewTxInput(prevoutHash, txo.VOut))
		witnessUtxo, err := prevoutFromTxo(txo)
		if err != nil {
			return nil, err
		}
		if err := updater.AddInWitnessUtxo(witnessUtxo, len(ptx.Inputs)-1); err != nil {
			return nil, err
		}
	}

	blindingKeys := make(map[int][]byte)
	if b.issuance != nil {
		if err := updater.AddIssuance(pset.AddIssuanceArgs{
			Precision:    0,
			AssetAmount:  b.issuance.assetAmount,
			TokenAmount:  b.issuance.tokenAmount,
			AssetAddress: b.issuance.assetAddress,
			TokenAddress: b.issuance.tokenAddress,
		}); err != nil {
			return nil, err
		}
		b.trackIssuanceBlindingKeys(ptx, blindingKeys)
	}
	if b.reissuance != nil {
		if err := b.addReissuance(updater, sel); err != nil {
			return nil, err
		}
		b.trackIssuanceBlindingKeys(ptx, blindingKeys)
	}

	for _, r := range recipients {
		out, err := newTxOutput(r.asset, r.amount, r.script)
		if err != nil {
			return nil, err
		}
		updater.AddOutput(out)
		if r.blindingKey != nil {
			blindingKeys[len(ptx.Outputs)-1] = r.blindingKey
		}
	}

	if b.drainTo != "" {
		total := uint64(0)
		for _, txo := range inputs {
			if txo.Secrets.AssetHash == b.net.AssetID {
				total += txo.Secrets.Value
			}
		}
		for _, r := range recipients {
			if r.asset == b.net.AssetID {
				total -= r.amount
			}
		}
		out, err := newTxOutput(b.net.AssetID, total-sel.fee, drainScript)
		if err != nil {
			return nil, err
		}
		updater.AddOutput(out)
		if drainBlindingKey != nil {
			blindingKeys[len(ptx.Outputs)-1] = drainBlindingKey
		}
	}

	changeAmounts := make(map[string]uint64)
	if err := b.addChangeOutputs(updater, ptx, sel, blindingKeys, changeAmounts); err != nil {
		return nil, err
	}

	feeOut, err := newTxOutput(b.net.AssetID, sel.fee, []byte{})
	if err != nil {
		return nil, err
	}
	updater.AddOutput(feeOut)

	psetBase64, err := ptx.ToBase64()
	if err != nil {
		return nil, err
	}
	return &UnsignedTx{
		PsetBase64:         psetBase64,
		OutputBlindingKeys: blindingKeys,
		FeeAmount:          sel.fee,
		ChangeAmounts:      changeAmounts,
	}, nil
}

// addChangeOutputs pays each leftover back to the next unused internal
// scripts, one fresh script per asset.
func (b *TxBuilder) addChangeOutputs(
	updater *pset.Updater,
	ptx *pset.Pset,
	sel *selection,
	blindingKeys map[int][]byte,
	changeAmounts map[string]uint64,
) error {
	if len(sel.changes) == 0 {
		return nil
	}

	next := b.store.LastUnused(descriptor.Internal)
	scripts, err := b.store.EnsureScripts(
		descriptor.Internal, next+uint32(len(sel.changes)),
	)
	if err != nil {
		return err
	}

	// deterministic output order
	assets := make([]string, 0, len(sel.changes))
	for asset := range sel.changes {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	for i, asset := range assets {
		info := scripts[next+uint32(i)]
		out, err := newTxOutput(asset, sel.changes[asset], info.Script)
		if err != nil {
			return err
		}
		updater.AddOutput(out)
		blindingKeys[len(ptx.Outputs)-1] = info.BlindingPubkey
		changeAmounts[asset] = sel.changes[asset]
	}
	return nil
}

// addReissuance spends the reserved token input and mints the new asset
// units from the recorded entropy. AddReissuance adds the token outpoint
// itself, which is why the txo is kept out of the generic input loop.
func (b *TxBuilder) addReissuance(updater *pset.Updater, sel *selection) error {
	tokenTxo := sel.token
	witnessUtxo, err := prevoutFromTxo(tokenTxo)
	if err != nil {
		return err
	}
	return updater.AddReissuance(pset.AddReissuanceArgs{
		PrevOutHash:    tokenTxo.TxID,
		PrevOutIndex:   tokenTxo.VOut,
		PrevOutBlinder: tokenTxo.Secrets.AssetBlinder,
		WitnessUtxo:    witnessUtxo,
		Entropy:        b.reissuance.entropy,
		AssetAmount:    b.reissuance.assetAmount,
		TokenAmount:    tokenTxo.Secrets.Value,
		AssetAddress:   b.reissuance.assetAddress,
		TokenAddress:   b.reissuance.assetAddress,
	})
}

// trackIssuanceBlindingKeys records the blinding keys of the outputs an
// issuance appended, resolving them from their confidential addresses.
func (b *TxBuilder) trackIssuanceBlindingKeys(ptx *pset.Pset, keys map[int][]byte) {
	addrs := []string{}
	if b.issuance != nil {
		addrs = append(addrs, b.issuance.assetAddress)
		if b.issuance.tokenAmount > 0 {
			addrs = append(addrs, b.issuance.tokenAddress)
		}
	}
	if b.reissuance != nil {
		addrs = append(addrs, b.reissuance.assetAddress, b.reissuance.assetAddress)
	}

	firstIssuanceOut := len(ptx.Outputs) - len(addrs)
	for i, addr := range addrs {
		if ctAddr, err := address.FromConfidential(addr); err == nil {
			keys[firstIssuanceOut+i] = ctAddr.BlindingKey
		}
	}
}

// prevoutFromTxo rebuilds the witness utxo of a selected coin, confidential
// commitments included when the output was blinded on the wire.
func prevoutFromTxo(txo *domain.Txo) (*transaction.TxOutput, error) {
	if txo.IsConfidential() {
		out := transaction.NewTxOutput(txo.AssetCommitment, txo.ValueCommitment, txo.Script)
		out.Nonce = txo.Nonce
		return out, nil
	}
	return newTxOutput(txo.Secrets.AssetHash, txo.Secrets.Value, txo.Script)
}

func newTxOutput(asset string, value uint64, script []byte) (*transaction.TxOutput, error) {
	assetBytes, err := bufferutil.AssetHashToBytes(asset)
	if err != nil {
		return nil, err
	}
	valueBytes, err := bufferutil.ValueToBytes(value)
	if err != nil {
		return nil, err
	}
	return transaction.NewTxOutput(assetBytes, valueBytes, script), nil
}

const opReturn = 0x6a
