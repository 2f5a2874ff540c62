// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tokamak

import (
	"bytes"
	"fmt"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/jit/native"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// runValidated executes a compiled program and the interpreter side by side
// on isolated overlays of the live state and compares every observable
// effect. A match commits the compiled run; a divergence commits the
// interpreted run and invalidates the compiled program. The live state never
// sees effects of the losing run.
func (r runContext) runValidated(program native.Invocable, key jit.CacheKey, params vm.Parameters) (vm.Result, error) {
	metrics := r.state.Metrics()
	metrics.ValidationRuns.Add(1)

	overlayA := newValidationOverlay(r.TransactionContext)
	overlayB := newValidationOverlay(r.TransactionContext)

	contextA := r
	contextA.TransactionContext = overlayA
	contextB := r
	contextB.TransactionContext = overlayB

	paramsA := params
	paramsA.Context = contextA
	paramsB := params
	paramsB.Context = contextB

	compiled, jitErr := contextA.runCompiled(program, paramsA)
	if jitErr != nil {
		// the compiled tier faulted before producing a verdict; discard the
		// overlay and charge a regular interpreted run on the live state
		metrics.InterpreterFallbacks.Add(1)
		return r.interpret(params)
	}

	interpreted, err := contextB.interpreter.Run(paramsB)
	if err != nil {
		// no interpreter verdict available; trust the compiled run
		metrics.ValidationInconclusive.Add(1)
		overlayA.commit()
		return compiled, nil
	}

	if err := compareExecutions(compiled, interpreted, overlayA, overlayB); err != nil {
		metrics.ValidationMismatches.Add(1)
		r.state.Invalidate(key)
		overlayB.commit()
		return interpreted, nil
	}

	metrics.ValidationSuccesses.Add(1)
	overlayA.commit()
	return compiled, nil
}

// compareExecutions checks the compiled run (a) against the interpreted run
// (b) for identical results and identical state effects. Touched accounts
// and slots of both runs are compared in both directions, so an effect only
// one side produced is a divergence too.
func compareExecutions(resultA, resultB vm.Result, a, b *validationOverlay) error {
	if resultA.Success != resultB.Success {
		return fmt.Errorf("%w: success %t vs %t", jit.ErrValidationMismatch, resultA.Success, resultB.Success)
	}
	if resultA.GasLeft != resultB.GasLeft {
		return fmt.Errorf("%w: gas left %d vs %d", jit.ErrValidationMismatch, resultA.GasLeft, resultB.GasLeft)
	}
	if resultA.GasRefund != resultB.GasRefund {
		return fmt.Errorf("%w: gas refund %d vs %d", jit.ErrValidationMismatch, resultA.GasRefund, resultB.GasRefund)
	}
	if !bytes.Equal(resultA.Output, resultB.Output) {
		return fmt.Errorf("%w: output diverged", jit.ErrValidationMismatch)
	}

	if len(a.logs) != len(b.logs) {
		return fmt.Errorf("%w: %d logs vs %d", jit.ErrValidationMismatch, len(a.logs), len(b.logs))
	}
	for i := range a.logs {
		if !logsEqual(a.logs[i], b.logs[i]) {
			return fmt.Errorf("%w: log %d diverged", jit.ErrValidationMismatch, i)
		}
	}

	for addr := range union(a.touchedAccounts(), b.touchedAccounts()) {
		if a.GetBalance(addr) != b.GetBalance(addr) {
			return fmt.Errorf("%w: balance of %v diverged", jit.ErrValidationMismatch, addr)
		}
		if a.GetNonce(addr) != b.GetNonce(addr) {
			return fmt.Errorf("%w: nonce of %v diverged", jit.ErrValidationMismatch, addr)
		}
		if a.GetCodeHash(addr) != b.GetCodeHash(addr) {
			return fmt.Errorf("%w: code of %v diverged", jit.ErrValidationMismatch, addr)
		}
		if a.selfDestructedBy(addr) != b.selfDestructedBy(addr) {
			return fmt.Errorf("%w: self-destruct of %v diverged", jit.ErrValidationMismatch, addr)
		}
	}

	for id := range union(keys(a.storage), keys(b.storage)) {
		if a.GetStorage(id.addr, id.key) != b.GetStorage(id.addr, id.key) {
			return fmt.Errorf("%w: storage %v/%v diverged", jit.ErrValidationMismatch, id.addr, id.key)
		}
	}
	for id := range union(keys(a.transient), keys(b.transient)) {
		if a.GetTransientStorage(id.addr, id.key) != b.GetTransientStorage(id.addr, id.key) {
			return fmt.Errorf("%w: transient storage %v/%v diverged", jit.ErrValidationMismatch, id.addr, id.key)
		}
	}

	return nil
}

func logsEqual(a, b vm.Log) bool {
	if a.Address != b.Address || len(a.Topics) != len(b.Topics) {
		return false
	}
	for i := range a.Topics {
		if a.Topics[i] != b.Topics[i] {
			return false
		}
	}
	return bytes.Equal(a.Data, b.Data)
}

func union[K comparable](a, b map[K]struct{}) map[K]struct{} {
	res := make(map[K]struct{}, len(a)+len(b))
	for k := range a {
		res[k] = struct{}{}
	}
	for k := range b {
		res[k] = struct{}{}
	}
	return res
}

func keys[K comparable, V any](m map[K]V) map[K]struct{} {
	res := make(map[K]struct{}, len(m))
	for k := range m {
		res[k] = struct{}{}
	}
	return res
}

type storageSlot struct {
	addr vm.Address
	key  vm.Key
}

// validationOverlay is a copy-on-write view of a transaction context: reads
// fall through to the base until the slot or account was written locally,
// writes never reach the base before commit. Two overlays over the same base
// give the compiled and the interpreted run identical starting conditions.
type validationOverlay struct {
	base vm.TransactionContext

	balances       map[vm.Address]vm.Value
	nonces         map[vm.Address]uint64
	codes          map[vm.Address]vm.Code
	storage        map[storageSlot]vm.Word
	transient      map[storageSlot]vm.Word
	warmAccounts   map[vm.Address]struct{}
	warmSlots      map[storageSlot]struct{}
	selfDestructed map[vm.Address]vm.Address
	logs           []vm.Log

	undoStack []overlayCheckpoint
}

type overlayCheckpoint struct {
	balances       map[vm.Address]vm.Value
	nonces         map[vm.Address]uint64
	codes          map[vm.Address]vm.Code
	storage        map[storageSlot]vm.Word
	transient      map[storageSlot]vm.Word
	selfDestructed map[vm.Address]vm.Address
	numLogs        int
}

func newValidationOverlay(base vm.TransactionContext) *validationOverlay {
	return &validationOverlay{
		base:           base,
		balances:       map[vm.Address]vm.Value{},
		nonces:         map[vm.Address]uint64{},
		codes:          map[vm.Address]vm.Code{},
		storage:        map[storageSlot]vm.Word{},
		transient:      map[storageSlot]vm.Word{},
		warmAccounts:   map[vm.Address]struct{}{},
		warmSlots:      map[storageSlot]struct{}{},
		selfDestructed: map[vm.Address]vm.Address{},
	}
}

func (o *validationOverlay) touchedAccounts() map[vm.Address]struct{} {
	res := make(map[vm.Address]struct{})
	for addr := range o.balances {
		res[addr] = struct{}{}
	}
	for addr := range o.nonces {
		res[addr] = struct{}{}
	}
	for addr := range o.codes {
		res[addr] = struct{}{}
	}
	for addr := range o.selfDestructed {
		res[addr] = struct{}{}
	}
	return res
}

func (o *validationOverlay) selfDestructedBy(addr vm.Address) bool {
	_, destructed := o.selfDestructed[addr]
	return destructed || o.base.HasSelfDestructed(addr)
}

// commit applies every buffered effect to the base context, in the order
// the base expects: access-list warm-ups first, then account and storage
// writes, logs, and self-destructs last.
func (o *validationOverlay) commit() {
	for addr := range o.warmAccounts {
		o.base.AccessAccount(addr)
	}
	for id := range o.warmSlots {
		o.base.AccessStorage(id.addr, id.key)
	}
	for addr, balance := range o.balances {
		o.base.SetBalance(addr, balance)
	}
	for addr, nonce := range o.nonces {
		o.base.SetNonce(addr, nonce)
	}
	for addr, code := range o.codes {
		o.base.SetCode(addr, code)
	}
	for id, value := range o.storage {
		o.base.SetStorage(id.addr, id.key, value)
	}
	for id, value := range o.transient {
		o.base.SetTransientStorage(id.addr, id.key, value)
	}
	for _, log := range o.logs {
		o.base.EmitLog(log)
	}
	// balances were settled above, the base transfer moves nothing
	for addr, beneficiary := range o.selfDestructed {
		o.base.SelfDestruct(addr, beneficiary)
	}
}

func (o *validationOverlay) AccountExists(addr vm.Address) bool {
	if _, exists := o.balances[addr]; exists {
		return true
	}
	if _, exists := o.nonces[addr]; exists {
		return true
	}
	return o.base.AccountExists(addr)
}

func (o *validationOverlay) GetBalance(addr vm.Address) vm.Value {
	if balance, exists := o.balances[addr]; exists {
		return balance
	}
	return o.base.GetBalance(addr)
}

func (o *validationOverlay) SetBalance(addr vm.Address, value vm.Value) {
	o.balances[addr] = value
}

func (o *validationOverlay) GetNonce(addr vm.Address) uint64 {
	if nonce, exists := o.nonces[addr]; exists {
		return nonce
	}
	return o.base.GetNonce(addr)
}

func (o *validationOverlay) SetNonce(addr vm.Address, nonce uint64) {
	o.nonces[addr] = nonce
}

func (o *validationOverlay) GetCode(addr vm.Address) vm.Code {
	if code, exists := o.codes[addr]; exists {
		return code
	}
	return o.base.GetCode(addr)
}

func (o *validationOverlay) GetCodeHash(addr vm.Address) vm.Hash {
	if code, exists := o.codes[addr]; exists {
		return hashCode(code)
	}
	return o.base.GetCodeHash(addr)
}

func (o *validationOverlay) GetCodeSize(addr vm.Address) int {
	if code, exists := o.codes[addr]; exists {
		return len(code)
	}
	return o.base.GetCodeSize(addr)
}

func (o *validationOverlay) SetCode(addr vm.Address, code vm.Code) {
	o.codes[addr] = code
}

func (o *validationOverlay) GetStorage(addr vm.Address, key vm.Key) vm.Word {
	if value, exists := o.storage[storageSlot{addr, key}]; exists {
		return value
	}
	return o.base.GetStorage(addr, key)
}

func (o *validationOverlay) SetStorage(addr vm.Address, key vm.Key, value vm.Word) vm.StorageStatus {
	status := vm.GetStorageStatus(o.GetCommittedStorage(addr, key), o.GetStorage(addr, key), value)
	o.storage[storageSlot{addr, key}] = value
	return status
}

func (o *validationOverlay) GetCommittedStorage(addr vm.Address, key vm.Key) vm.Word {
	return o.base.GetCommittedStorage(addr, key)
}

func (o *validationOverlay) GetTransientStorage(addr vm.Address, key vm.Key) vm.Word {
	if value, exists := o.transient[storageSlot{addr, key}]; exists {
		return value
	}
	return o.base.GetTransientStorage(addr, key)
}

func (o *validationOverlay) SetTransientStorage(addr vm.Address, key vm.Key, value vm.Word) {
	o.transient[storageSlot{addr, key}] = value
}

func (o *validationOverlay) SelfDestruct(addr vm.Address, beneficiary vm.Address) bool {
	if o.selfDestructedBy(addr) {
		return false
	}
	o.selfDestructed[addr] = beneficiary
	balance := o.GetBalance(addr)
	if addr != beneficiary {
		o.SetBalance(beneficiary, vm.Add(o.GetBalance(beneficiary), balance))
	}
	o.SetBalance(addr, vm.Value{})
	return true
}

func (o *validationOverlay) CreateSnapshot() vm.Snapshot {
	o.undoStack = append(o.undoStack, overlayCheckpoint{
		balances:       cloneMap(o.balances),
		nonces:         cloneMap(o.nonces),
		codes:          cloneMap(o.codes),
		storage:        cloneMap(o.storage),
		transient:      cloneMap(o.transient),
		selfDestructed: cloneMap(o.selfDestructed),
		numLogs:        len(o.logs),
	})
	return vm.Snapshot(len(o.undoStack) - 1)
}

func (o *validationOverlay) RestoreSnapshot(snapshot vm.Snapshot) {
	if int(snapshot) < 0 || int(snapshot) >= len(o.undoStack) {
		return
	}
	checkpoint := o.undoStack[snapshot]
	o.balances = checkpoint.balances
	o.nonces = checkpoint.nonces
	o.codes = checkpoint.codes
	o.storage = checkpoint.storage
	o.transient = checkpoint.transient
	o.selfDestructed = checkpoint.selfDestructed
	o.logs = o.logs[:checkpoint.numLogs]
	o.undoStack = o.undoStack[:snapshot]
}

func (o *validationOverlay) AccessAccount(addr vm.Address) vm.AccessStatus {
	warm := o.IsAddressInAccessList(addr)
	o.warmAccounts[addr] = struct{}{}
	if warm {
		return vm.WarmAccess
	}
	return vm.ColdAccess
}

func (o *validationOverlay) AccessStorage(addr vm.Address, key vm.Key) vm.AccessStatus {
	id := storageSlot{addr, key}
	_, slotWarm := o.warmSlots[id]
	if !slotWarm {
		_, slotWarm = o.base.IsSlotInAccessList(addr, key)
	}
	o.warmSlots[id] = struct{}{}
	if slotWarm {
		return vm.WarmAccess
	}
	return vm.ColdAccess
}

func (o *validationOverlay) EmitLog(log vm.Log) {
	o.logs = append(o.logs, log)
}

func (o *validationOverlay) GetLogs() []vm.Log {
	logs := o.base.GetLogs()
	return append(logs[:len(logs):len(logs)], o.logs...)
}

func (o *validationOverlay) GetBlockHash(number int64) vm.Hash {
	return o.base.GetBlockHash(number)
}

func (o *validationOverlay) IsAddressInAccessList(addr vm.Address) bool {
	if _, warm := o.warmAccounts[addr]; warm {
		return true
	}
	return o.base.IsAddressInAccessList(addr)
}

func (o *validationOverlay) IsSlotInAccessList(addr vm.Address, key vm.Key) (addressPresent, slotPresent bool) {
	basePresent, baseSlot := o.base.IsSlotInAccessList(addr, key)
	_, warmAccount := o.warmAccounts[addr]
	_, warmSlot := o.warmSlots[storageSlot{addr, key}]
	return basePresent || warmAccount, baseSlot || warmSlot
}

func (o *validationOverlay) HasSelfDestructed(addr vm.Address) bool {
	return o.selfDestructedBy(addr)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	res := make(map[K]V, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}
