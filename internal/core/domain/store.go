package domain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/unblinder"
	"github.com/vulpemventures/go-elements/transaction"
)

// Store is the wallet's view of the chain: every relevant transaction, every
// owned output with its unblinded secrets, the derived script range and the
// best known tip. Mutations go through ApplyUpdate and are serialized; reads
// run concurrently against fully-merged state only.
type Store struct {
	mtx sync.RWMutex

	desc *descriptor.Descriptor

	txs           map[string]*WalletTx
	txos          map[string]*Txo
	scriptsByHex  map[string]*ScriptInfo
	scriptsByPath map[string]*ScriptInfo
	tip           BlockTip
	lastUnused    [2]uint32
	derivedCount  [2]uint32
	nextSeq       uint64

	// decoded wire transactions, filled under write lock only
	decoded map[string]*transaction.Transaction
}

// NewStore returns an empty store bound to the given descriptor.
func NewStore(desc *descriptor.Descriptor) *Store {
	return &Store{
		desc:          desc,
		txs:           make(map[string]*WalletTx),
		txos:          make(map[string]*Txo),
		scriptsByHex:  make(map[string]*ScriptInfo),
		scriptsByPath: make(map[string]*ScriptInfo),
		decoded:       make(map[string]*transaction.Transaction),
	}
}

// Descriptor returns the descriptor identifying the wallet.
func (s *Store) Descriptor() *descriptor.Descriptor {
	return s.desc
}

// Tip returns the best block known to the store.
func (s *Store) Tip() BlockTip {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.tip
}

// LastUnused returns the first address index of the given chain never seen
// receiving funds, the high-water mark for both scanning and fresh address
// derivation.
func (s *Store) LastUnused(chain descriptor.Chain) uint32 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.lastUnused[chainIdx(chain)]
}

// ChangeSummary reports what an applied update actually changed. An empty
// summary means the update was a duplicate or tip-only.
type ChangeSummary struct {
	Tip            BlockTip
	NewTxids       []string
	ConfirmedTxids []string
	ReorgedTxids   []string
	DroppedTxids   []string
	NewTxos        []TxoKey
	SpentTxos      []TxoKey
	NewScripts     int
}

// IsEmpty returns whether the update changed anything besides the tip.
func (c *ChangeSummary) IsEmpty() bool {
	return len(c.NewTxids) == 0 && len(c.ConfirmedTxids) == 0 &&
		len(c.ReorgedTxids) == 0 && len(c.DroppedTxids) == 0 &&
		len(c.NewTxos) == 0 && len(c.SpentTxos) == 0 && c.NewScripts == 0
}

type stagedTx struct {
	txid  string
	tx    *transaction.Transaction
	txHex string
	entry TxEntry
}

type stagedHeight struct {
	height    *uint32
	timestamp uint32
}

// mergeStage accumulates the outcome of validating an update so that the
// commit below cannot fail: either the whole batch lands or none of it does.
type mergeStage struct {
	newScripts    []*ScriptInfo
	newTxs        []*stagedTx
	heightChanges map[string]stagedHeight
	restored      map[string]struct{}
	dropped       []string
	newTxos       []*Txo
	spends        map[string]string
	reorgDepth    *uint32
}

// ApplyUpdate atomically merges an update batch into the store. A malformed
// entry anywhere in the batch aborts the whole call leaving prior state
// untouched. Applying the same update twice yields an empty summary.
func (s *Store) ApplyUpdate(u *Update) (*ChangeSummary, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := u.Validate(); err != nil {
		return nil, err
	}
	if s.tip.Height > 0 && u.Tip.Height+1 < s.tip.Height {
		return nil, fmt.Errorf(
			"%w: update tip %d, stored tip %d",
			ErrStaleUpdate, u.Tip.Height, s.tip.Height,
		)
	}

	stage := &mergeStage{
		heightChanges: make(map[string]stagedHeight),
		restored:      make(map[string]struct{}),
		spends:        make(map[string]string),
	}

	if depth, reorg := s.detectReorg(u.Tip); reorg {
		stage.reorgDepth = &depth
	}
	if err := s.stageScripts(u, stage); err != nil {
		return nil, err
	}
	if err := s.stageTxs(u, stage); err != nil {
		return nil, err
	}
	if err := s.stageTxos(stage); err != nil {
		return nil, err
	}
	s.stageSpends(stage)
	s.stageDrops(u, stage)

	return s.commit(u, stage), nil
}

// detectReorg returns the height at and above which stored confirmations are
// no longer trusted.
func (s *Store) detectReorg(tip BlockTip) (uint32, bool) {
	if s.tip.Height == 0 {
		return 0, false
	}
	if tip.Height < s.tip.Height {
		return tip.Height + 1, true
	}
	if tip.Height == s.tip.Height && tip.Hash != "" && s.tip.Hash != "" &&
		tip.Hash != s.tip.Hash {
		return tip.Height, true
	}
	return 0, false
}

// stageScripts verifies every revealed script against the descriptor: the
// backend cannot make the wallet watch a script it would not derive itself.
func (s *Store) stageScripts(u *Update, stage *mergeStage) error {
	for _, reveal := range u.RevealedScripts {
		if known, ok := s.scriptsByPath[scriptPathKey(reveal.Chain, reveal.Index)]; ok {
			if !bytes.Equal(known.Script, reveal.Script) {
				return fmt.Errorf(
					"%w: revealed script at %s/%d does not match the derived one",
					ErrMalformedUpdate, reveal.Chain, reveal.Index,
				)
			}
			continue
		}
		script, blindingPubkey, err := s.desc.DeriveScript(reveal.Index, reveal.Chain)
		if err != nil || !bytes.Equal(script, reveal.Script) {
			return fmt.Errorf(
				"%w: revealed script at %s/%d does not match the derived one",
				ErrMalformedUpdate, reveal.Chain, reveal.Index,
			)
		}
		stage.newScripts = append(stage.newScripts, &ScriptInfo{
			Index:          reveal.Index,
			Chain:          reveal.Chain,
			Script:         script,
			BlindingPubkey: blindingPubkey.SerializeCompressed(),
		})
	}
	return nil
}

func (s *Store) stageTxs(u *Update, stage *mergeStage) error {
	for _, entry := range u.Txs {
		if entry.TxHex == "" {
			tx, ok := s.txs[entry.TxID]
			if !ok {
				return fmt.Errorf(
					"%w: status change for unknown tx %s", ErrMalformedUpdate, entry.TxID,
				)
			}
			s.stageHeightChange(tx, entry, stage)
			continue
		}

		tx, err := transaction.NewTxFromHex(entry.TxHex)
		if err != nil {
			return fmt.Errorf("%w: undecodable tx: %s", ErrMalformedUpdate, err)
		}
		txid := tx.TxHash().String()
		if entry.TxID != "" && entry.TxID != txid {
			return fmt.Errorf(
				"%w: tx hex hashes to %s, entry says %s",
				ErrMalformedUpdate, txid, entry.TxID,
			)
		}

		if known, ok := s.txs[txid]; ok {
			s.stageHeightChange(known, entry, stage)
			if known.Dropped {
				stage.restored[txid] = struct{}{}
			}
			continue
		}
		stage.newTxs = append(stage.newTxs, &stagedTx{
			txid:  txid,
			tx:    tx,
			txHex: entry.TxHex,
			entry: entry,
		})
	}
	return nil
}

func (s *Store) stageHeightChange(tx *WalletTx, entry TxEntry, stage *mergeStage) {
	sameHeight := (tx.Height == nil && entry.Height == nil) ||
		(tx.Height != nil && entry.Height != nil && *tx.Height == *entry.Height)
	if sameHeight && !tx.Dropped {
		return
	}
	stage.heightChanges[tx.TxID] = stagedHeight{
		height:    entry.Height,
		timestamp: entry.Timestamp,
	}
}

// stageTxos unblinds every output of the new transactions paying a script
// the wallet owns. A failure on an owned script means the batch is corrupt:
// either the backend tampered with the output or the blinding key does not
// belong to this wallet.
func (s *Store) stageTxos(stage *mergeStage) error {
	lookup := func(scriptHex string) *ScriptInfo {
		if info, ok := s.scriptsByHex[scriptHex]; ok {
			return info
		}
		for _, info := range stage.newScripts {
			if info.ScriptHex() == scriptHex {
				return info
			}
		}
		return nil
	}

	for _, staged := range stage.newTxs {
		for vout, out := range staged.tx.Outputs {
			if len(out.Script) == 0 {
				// fee output
				continue
			}
			info := lookup(hex.EncodeToString(out.Script))
			if info == nil {
				continue
			}

			blindingPrvkey, _, err := s.desc.DeriveBlindingKeyPair(out.Script)
			if err != nil {
				return err
			}
			secrets, err := unblinder.UnblindOutput(out, blindingPrvkey.Serialize())
			if err != nil {
				return fmt.Errorf(
					"%w: output %s:%d on script %s/%d",
					ErrCorruptUpdate, staged.txid, vout, info.Chain, info.Index,
				)
			}

			txo := &Txo{
				TxID:    staged.txid,
				VOut:    uint32(vout),
				Script:  out.Script,
				Secrets: secrets,
			}
			if unblinder.IsConfidential(out) {
				txo.AssetCommitment = out.Asset
				txo.ValueCommitment = out.Value
				txo.Nonce = out.Nonce
				txo.RangeProof = out.RangeProof
				txo.SurjectionProof = out.SurjectionProof
			}
			stage.newTxos = append(stage.newTxos, txo)
		}
	}
	return nil
}

// stageSpends marks the prevouts referenced by the new transactions as spent
// wherever they are recognized across the whole store, owned or not.
func (s *Store) stageSpends(stage *mergeStage) {
	known := func(key TxoKey) *Txo {
		if txo, ok := s.txos[key.String()]; ok {
			return txo
		}
		for _, txo := range stage.newTxos {
			if txo.Key() == key {
				return txo
			}
		}
		return nil
	}

	for _, staged := range stage.newTxs {
		for _, in := range staged.tx.Inputs {
			key := TxoKey{
				TxID: bufferutil.TxIDFromBytes(in.Hash),
				VOut: in.Index,
			}
			if txo := known(key); txo != nil && txo.SpentBy != staged.txid {
				stage.spends[key.String()] = staged.txid
			}
		}
	}
}

func (s *Store) stageDrops(u *Update, stage *mergeStage) {
	for _, txid := range u.DeletedTxids {
		if tx, ok := s.txs[txid]; ok && !tx.Dropped {
			if _, restored := stage.restored[txid]; !restored {
				stage.dropped = append(stage.dropped, txid)
			}
		}
	}
}

// commit applies a fully validated stage. It cannot fail.
func (s *Store) commit(u *Update, stage *mergeStage) *ChangeSummary {
	summary := &ChangeSummary{Tip: u.Tip}

	if stage.reorgDepth != nil {
		depth := *stage.reorgDepth
		log.Warnf("reorg detected, retracting confirmations from height %d", depth)
		for txid, tx := range s.txs {
			if tx.Height == nil || *tx.Height < depth {
				continue
			}
			if _, overridden := stage.heightChanges[txid]; overridden {
				continue
			}
			tx.Unconfirm()
			summary.ReorgedTxids = append(summary.ReorgedTxids, txid)
		}
	}
	if u.Tip.Height > 0 {
		s.tip = u.Tip
	}

	for _, info := range stage.newScripts {
		s.scriptsByHex[info.ScriptHex()] = info
		s.scriptsByPath[info.PathKey()] = info
		if info.Index+1 > s.derivedCount[chainIdx(info.Chain)] {
			s.derivedCount[chainIdx(info.Chain)] = info.Index + 1
		}
		summary.NewScripts++
	}

	for _, staged := range stage.newTxs {
		tx := &WalletTx{
			TxID:      staged.txid,
			TxHex:     staged.txHex,
			Height:    staged.entry.Height,
			Timestamp: staged.entry.Timestamp,
			Seq:       s.nextSeq,
		}
		s.nextSeq++
		s.txs[staged.txid] = tx
		s.decoded[staged.txid] = staged.tx
		summary.NewTxids = append(summary.NewTxids, staged.txid)
		if tx.IsConfirmed() {
			summary.ConfirmedTxids = append(summary.ConfirmedTxids, staged.txid)
		}
	}

	for txid, change := range stage.heightChanges {
		tx := s.txs[txid]
		wasConfirmed := tx.IsConfirmed()
		if change.height != nil {
			tx.Confirm(*change.height, change.timestamp)
			if !wasConfirmed {
				summary.ConfirmedTxids = append(summary.ConfirmedTxids, txid)
			}
		} else if wasConfirmed {
			tx.Unconfirm()
			summary.ReorgedTxids = append(summary.ReorgedTxids, txid)
		}
	}
	for txid := range stage.restored {
		s.txs[txid].Restore()
	}
	for _, txid := range stage.dropped {
		s.txs[txid].Drop()
		summary.DroppedTxids = append(summary.DroppedTxids, txid)
	}

	for _, txo := range stage.newTxos {
		s.txos[txo.Key().String()] = txo
		summary.NewTxos = append(summary.NewTxos, txo.Key())

		info := s.scriptsByHex[hex.EncodeToString(txo.Script)]
		if info.Status == ScriptUnused {
			info.Status = ScriptUsed
		}
		idx := chainIdx(info.Chain)
		if info.Index+1 > s.lastUnused[idx] {
			s.lastUnused[idx] = info.Index + 1
		}
	}
	for outpoint, spender := range stage.spends {
		txo := s.txos[outpoint]
		txo.SpentBy = spender
		summary.SpentTxos = append(summary.SpentTxos, txo.Key())
		if info, ok := s.scriptsByHex[hex.EncodeToString(txo.Script)]; ok {
			info.Status = ScriptSpentFrom
		}
	}

	if !summary.IsEmpty() {
		log.WithFields(log.Fields{
			"tip":     u.Tip.Height,
			"txs":     len(summary.NewTxids),
			"txos":    len(summary.NewTxos),
			"spent":   len(summary.SpentTxos),
			"scripts": summary.NewScripts,
		}).Debug("update applied")
	}
	return summary
}

// EnsureScripts lazily extends the derived script range of a chain up to the
// given number of entries and returns the resulting set, oldest first. It is
// used to build the scan set handed to the blockchain backend.
func (s *Store) EnsureScripts(chain descriptor.Chain, count uint32) ([]ScriptInfo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	idx := chainIdx(chain)
	for i := s.derivedCount[idx]; i < count; i++ {
		script, blindingPubkey, err := s.desc.DeriveScript(i, chain)
		if err != nil {
			return nil, err
		}
		info := &ScriptInfo{
			Index:          i,
			Chain:          chain,
			Script:         script,
			BlindingPubkey: blindingPubkey.SerializeCompressed(),
		}
		s.scriptsByHex[info.ScriptHex()] = info
		s.scriptsByPath[info.PathKey()] = info
	}
	if count > s.derivedCount[idx] {
		s.derivedCount[idx] = count
	}

	scripts := make([]ScriptInfo, 0, s.derivedCount[idx])
	for i := uint32(0); i < s.derivedCount[idx]; i++ {
		scripts = append(scripts, *s.scriptsByPath[scriptPathKey(chain, i)])
	}
	return scripts, nil
}

// LockTxos reserves the given outpoints for a build session so that two
// concurrent builds do not pick the same coins. Locking fails atomically if
// any txo is missing or reserved by another session.
func (s *Store) LockTxos(keys []TxoKey, sessionID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	txos := make([]*Txo, 0, len(keys))
	for _, key := range keys {
		txo, ok := s.txos[key.String()]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTxoNotFound, key)
		}
		if txo.IsLocked() && txo.LockedBy.String() != sessionID.String() {
			return fmt.Errorf("%w: %s", ErrTxoAlreadyLocked, key)
		}
		txos = append(txos, txo)
	}
	for _, txo := range txos {
		txo.Lock(&sessionID)
	}
	return nil
}

// UnlockTxos releases the reservation of the given outpoints.
func (s *Store) UnlockTxos(keys []TxoKey) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, key := range keys {
		if txo, ok := s.txos[key.String()]; ok {
			txo.Unlock()
		}
	}
}

type storeSnapshot struct {
	Tip          BlockTip      `json:"tip"`
	LastUnused   [2]uint32     `json:"lastUnused"`
	DerivedCount [2]uint32     `json:"derivedCount"`
	NextSeq      uint64        `json:"nextSeq"`
	Txs          []*WalletTx   `json:"txs"`
	Txos         []*Txo        `json:"txos"`
	Scripts      []*ScriptInfo `json:"scripts"`
}

// Snapshot serializes the whole store state for write-through persistence.
func (s *Store) Snapshot() ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snapshot := &storeSnapshot{
		Tip:          s.tip,
		LastUnused:   s.lastUnused,
		DerivedCount: s.derivedCount,
		NextSeq:      s.nextSeq,
		Txs:          make([]*WalletTx, 0, len(s.txs)),
		Txos:         make([]*Txo, 0, len(s.txos)),
		Scripts:      make([]*ScriptInfo, 0, len(s.scriptsByHex)),
	}
	for _, tx := range s.txs {
		snapshot.Txs = append(snapshot.Txs, tx)
	}
	for _, txo := range s.txos {
		snapshot.Txos = append(snapshot.Txos, txo)
	}
	for _, info := range s.scriptsByHex {
		snapshot.Scripts = append(snapshot.Scripts, info)
	}
	return json.Marshal(snapshot)
}

// RestoreSnapshot loads a previously serialized state into an empty store.
func (s *Store) RestoreSnapshot(data []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	snapshot := &storeSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return err
	}

	s.tip = snapshot.Tip
	s.lastUnused = snapshot.LastUnused
	s.derivedCount = snapshot.DerivedCount
	s.nextSeq = snapshot.NextSeq
	s.txs = make(map[string]*WalletTx, len(snapshot.Txs))
	s.txos = make(map[string]*Txo, len(snapshot.Txos))
	s.scriptsByHex = make(map[string]*ScriptInfo, len(snapshot.Scripts))
	s.scriptsByPath = make(map[string]*ScriptInfo, len(snapshot.Scripts))
	s.decoded = make(map[string]*transaction.Transaction, len(snapshot.Txs))

	for _, tx := range snapshot.Txs {
		decoded, err := transaction.NewTxFromHex(tx.TxHex)
		if err != nil {
			return fmt.Errorf("restoring tx %s: %w", tx.TxID, err)
		}
		s.txs[tx.TxID] = tx
		s.decoded[tx.TxID] = decoded
	}
	for _, txo := range snapshot.Txos {
		s.txos[txo.Key().String()] = txo
	}
	for _, info := range snapshot.Scripts {
		s.scriptsByHex[info.ScriptHex()] = info
		s.scriptsByPath[info.PathKey()] = info
	}
	return nil
}

func chainIdx(chain descriptor.Chain) int {
	if chain == descriptor.Internal {
		return 1
	}
	return 0
}
