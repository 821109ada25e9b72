/*
tx.go - Transaction assembly, message serialization, signing

PURPOSE:
  Builds the signed wire payload the ledger endpoint accepts. Assembly is
  pure (Built state): every referenced address is supplied explicitly by the
  caller, there is no implicit account resolution. Serialization follows the
  legacy message layout:

    header (3 bytes) | account keys | recent blockhash | instructions

  and the wire transaction is

    signatures | message

  with compact length prefixes on every array.

ACCOUNT ORDERING:
  Keys are deduplicated (flags merged) and laid out as: writable signers
  (fee payer first), readonly signers, writable non-signers, readonly
  non-signers. Program ids ride along as readonly non-signers. Instruction
  account lists then reference keys by index.

SIGNING:
  The signature covers the serialized message, blockhash included. Because
  the handle IS the fee payer's signature, re-sending the identical signed
  payload is idempotent; rebuilding and re-signing is not.

SEE ALSO:
  - submit.go: drives Build -> Sign -> Submit -> confirm
  - ledgertest: decodes these payloads to emulate the remote program
*/
package ledger

import (
	"fmt"
)

// AccountMeta declares how an instruction touches one account.
type AccountMeta struct {
	Key      PublicKey
	Signer   bool
	Writable bool
}

// Meta constructs a readonly, non-signing reference.
func Meta(key PublicKey) AccountMeta { return AccountMeta{Key: key} }

// WritableMeta constructs a writable, non-signing reference.
func WritableMeta(key PublicKey) AccountMeta { return AccountMeta{Key: key, Writable: true} }

// SignerMeta constructs a writable signing reference.
func SignerMeta(key PublicKey) AccountMeta { return AccountMeta{Key: key, Signer: true, Writable: true} }

// Instruction is one program invocation with its full, explicit account set.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// =============================================================================
// MESSAGE COMPILATION
// =============================================================================

// Message is the compiled, unsigned form of a transaction.
type Message struct {
	Keys          []PublicKey
	Blockhash     [32]byte
	numSigners    int
	numROSigned   int
	numROUnsigned int
	instructions  []compiledInstruction
}

type compiledInstruction struct {
	programIndex uint8
	accounts     []uint8
	data         []byte
}

// CompileMessage orders and deduplicates every account the instructions
// reference and resolves instruction accounts to key indices. The fee payer
// is always the first key and the first signer.
func CompileMessage(feePayer PublicKey, blockhash [32]byte, instructions []Instruction) (*Message, error) {
	if feePayer.IsZero() {
		return nil, fmt.Errorf("fee payer is required")
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions")
	}

	// Merge flags per key. The fee payer is forced writable+signer.
	type flags struct{ signer, writable bool }
	merged := map[PublicKey]*flags{feePayer: {signer: true, writable: true}}
	order := []PublicKey{feePayer}
	touch := func(key PublicKey, signer, writable bool) {
		f, ok := merged[key]
		if !ok {
			f = &flags{}
			merged[key] = f
			order = append(order, key)
		}
		f.signer = f.signer || signer
		f.writable = f.writable || writable
	}
	for _, ins := range instructions {
		for _, m := range ins.Accounts {
			touch(m.Key, m.Signer, m.Writable)
		}
		touch(ins.ProgramID, false, false)
	}

	var writableSigners, roSigners, writableOthers, roOthers []PublicKey
	for _, key := range order {
		f := merged[key]
		switch {
		case f.signer && f.writable:
			writableSigners = append(writableSigners, key)
		case f.signer:
			roSigners = append(roSigners, key)
		case f.writable:
			writableOthers = append(writableOthers, key)
		default:
			roOthers = append(roOthers, key)
		}
	}

	msg := &Message{
		Blockhash:     blockhash,
		numSigners:    len(writableSigners) + len(roSigners),
		numROSigned:   len(roSigners),
		numROUnsigned: len(roOthers),
	}
	msg.Keys = append(msg.Keys, writableSigners...)
	msg.Keys = append(msg.Keys, roSigners...)
	msg.Keys = append(msg.Keys, writableOthers...)
	msg.Keys = append(msg.Keys, roOthers...)

	index := make(map[PublicKey]uint8, len(msg.Keys))
	for i, key := range msg.Keys {
		if i > 255 {
			return nil, fmt.Errorf("too many accounts in one transaction")
		}
		index[key] = uint8(i)
	}
	for _, ins := range instructions {
		ci := compiledInstruction{programIndex: index[ins.ProgramID], data: ins.Data}
		for _, m := range ins.Accounts {
			ci.accounts = append(ci.accounts, index[m.Key])
		}
		msg.instructions = append(msg.instructions, ci)
	}
	return msg, nil
}

// Serialize produces the exact bytes the signature covers.
func (m *Message) Serialize() []byte {
	out := []byte{byte(m.numSigners), byte(m.numROSigned), byte(m.numROUnsigned)}
	out = appendCompactU16(out, len(m.Keys))
	for _, key := range m.Keys {
		out = append(out, key[:]...)
	}
	out = append(out, m.Blockhash[:]...)
	out = appendCompactU16(out, len(m.instructions))
	for _, ins := range m.instructions {
		out = append(out, ins.programIndex)
		out = appendCompactU16(out, len(ins.accounts))
		out = append(out, ins.accounts...)
		out = appendCompactU16(out, len(ins.data))
		out = append(out, ins.data...)
	}
	return out
}

// SignMessage produces the wire transaction: the signer's signature over the
// serialized message, followed by the message itself.
func SignMessage(msg *Message, sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature is %d bytes, want 64", len(sig))
	}
	if msg.numSigners != 1 {
		return nil, fmt.Errorf("message requires %d signatures, have 1", msg.numSigners)
	}
	out := appendCompactU16(nil, 1)
	out = append(out, sig...)
	out = append(out, msg.Serialize()...)
	return out, nil
}

// =============================================================================
// DECODING - used by tests and tooling to inspect wire payloads
// =============================================================================

// DecodedTransaction is the parsed form of a wire payload.
type DecodedTransaction struct {
	Signatures   [][]byte
	Keys         []PublicKey
	Blockhash    [32]byte
	Instructions []Instruction

	// Message is the raw serialized message the signatures cover.
	Message []byte
}

// DecodeTransaction parses a wire payload back into instructions with their
// account flags reconstructed from the header.
func DecodeTransaction(wire []byte) (*DecodedTransaction, error) {
	nSigs, n := readCompactU16(wire)
	if n < 0 {
		return nil, fmt.Errorf("malformed signature count")
	}
	off := n
	tx := &DecodedTransaction{}
	for i := 0; i < nSigs; i++ {
		if off+64 > len(wire) {
			return nil, fmt.Errorf("truncated signature %d", i)
		}
		sig := make([]byte, 64)
		copy(sig, wire[off:off+64])
		tx.Signatures = append(tx.Signatures, sig)
		off += 64
	}
	tx.Message = append([]byte(nil), wire[off:]...)

	if off+3 > len(wire) {
		return nil, fmt.Errorf("truncated header")
	}
	numSigners := int(wire[off])
	numROSigned := int(wire[off+1])
	numROUnsigned := int(wire[off+2])
	off += 3

	nKeys, n := readCompactU16(wire[off:])
	if n < 0 {
		return nil, fmt.Errorf("malformed key count")
	}
	off += n
	for i := 0; i < nKeys; i++ {
		if off+32 > len(wire) {
			return nil, fmt.Errorf("truncated key %d", i)
		}
		var key PublicKey
		copy(key[:], wire[off:off+32])
		tx.Keys = append(tx.Keys, key)
		off += 32
	}

	if off+32 > len(wire) {
		return nil, fmt.Errorf("truncated blockhash")
	}
	copy(tx.Blockhash[:], wire[off:off+32])
	off += 32

	isSigner := func(i int) bool { return i < numSigners }
	isWritable := func(i int) bool {
		if i < numSigners {
			return i < numSigners-numROSigned
		}
		return i < nKeys-numROUnsigned
	}

	nIns, n := readCompactU16(wire[off:])
	if n < 0 {
		return nil, fmt.Errorf("malformed instruction count")
	}
	off += n
	for i := 0; i < nIns; i++ {
		if off >= len(wire) {
			return nil, fmt.Errorf("truncated instruction %d", i)
		}
		progIdx := int(wire[off])
		off++
		if progIdx >= nKeys {
			return nil, fmt.Errorf("program index out of range")
		}
		nAccts, n := readCompactU16(wire[off:])
		if n < 0 {
			return nil, fmt.Errorf("malformed account count")
		}
		off += n
		ins := Instruction{ProgramID: tx.Keys[progIdx]}
		for j := 0; j < nAccts; j++ {
			if off >= len(wire) {
				return nil, fmt.Errorf("truncated account index")
			}
			idx := int(wire[off])
			off++
			if idx >= nKeys {
				return nil, fmt.Errorf("account index out of range")
			}
			ins.Accounts = append(ins.Accounts, AccountMeta{
				Key:      tx.Keys[idx],
				Signer:   isSigner(idx),
				Writable: isWritable(idx),
			})
		}
		nData, n := readCompactU16(wire[off:])
		if n < 0 {
			return nil, fmt.Errorf("malformed data length")
		}
		off += n
		if off+nData > len(wire) {
			return nil, fmt.Errorf("truncated instruction data")
		}
		ins.Data = append([]byte(nil), wire[off:off+nData]...)
		off += nData
		tx.Instructions = append(tx.Instructions, ins)
	}
	return tx, nil
}
