/*
encode.go - Explicit wire encodings for account and instruction payloads

PURPOSE:
  The remote program serializes account records and instruction arguments
  with a fixed little-endian layout. These encoder/decoder types reproduce
  that layout byte for byte, with every field written explicitly in
  declaration order. Nothing here is reflective: a record's wire shape is
  visible in the code that encodes it.

LAYOUT RULES:
  u8/bool     1 byte (bool: 0 or 1)
  u64/i64     8 bytes little-endian
  string      u32 little-endian length prefix + raw bytes
  identity    raw 32 bytes
  option<T>   1 tag byte (0 absent, 1 present) + T when present

DISCRIMINATORS:
  Every account record starts with sha256("account:" + RecordName)[0:8] and
  every instruction payload with sha256("global:" + method_name)[0:8]. The
  discriminator doubles as the bulk-scan filter for one entity kind.

DECODER ERRORS:
  The Decoder is sticky: the first failure latches and every later read
  returns zero values. Callers check Err() once at the end.
*/
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// AccountDiscriminator returns the 8-byte marker for an account record kind.
func AccountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// InstructionDiscriminator returns the 8-byte marker for a program method.
func InstructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// =============================================================================
// ENCODER
// =============================================================================

// Encoder builds a payload field by field in the program's wire layout.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Discriminator(d [8]byte) *Encoder { e.buf.Write(d[:]); return e }
func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
	return e
}
func (e *Encoder) Uint8(v uint8) *Encoder { e.buf.WriteByte(v); return e }
func (e *Encoder) Uint64(v uint64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
	return e
}
func (e *Encoder) Int64(v int64) *Encoder { return e.Uint64(uint64(v)) }
func (e *Encoder) String(s string) *Encoder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(s)))
	e.buf.Write(b[:])
	e.buf.WriteString(s)
	return e
}
func (e *Encoder) PublicKey(pk PublicKey) *Encoder { e.buf.Write(pk[:]); return e }

// OptionInt64 writes the optional-value layout: tag byte then the value.
func (e *Encoder) OptionInt64(v *int64) *Encoder {
	if v == nil {
		e.buf.WriteByte(0)
		return e
	}
	e.buf.WriteByte(1)
	return e.Int64(*v)
}

func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// =============================================================================
// DECODER
// =============================================================================

// Decoder reads a payload field by field, latching the first failure.
type Decoder struct {
	data []byte
	off  int
	err  error
}

func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

// Err returns the first decode failure, or nil.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

func (d *Decoder) fail(what string) {
	if d.err == nil {
		d.err = fmt.Errorf("truncated payload: reading %s at offset %d of %d", what, d.off, len(d.data))
	}
}

func (d *Decoder) take(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.data) {
		d.fail(what)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

// Discriminator consumes the 8-byte marker and checks it against want.
func (d *Decoder) Discriminator(want [8]byte) *Decoder {
	b := d.take(8, "discriminator")
	if b != nil && !bytes.Equal(b, want[:]) && d.err == nil {
		d.err = fmt.Errorf("record discriminator mismatch")
	}
	return d
}

func (d *Decoder) Bool() bool {
	b := d.take(1, "bool")
	return b != nil && b[0] != 0
}

func (d *Decoder) Uint8() uint8 {
	b := d.take(1, "u8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) Uint64() uint64 {
	b := d.take(8, "u64")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }

func (d *Decoder) String() string {
	lb := d.take(4, "string length")
	if lb == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(lb)
	b := d.take(int(n), "string body")
	if b == nil {
		return ""
	}
	return string(b)
}

func (d *Decoder) PublicKey() PublicKey {
	b := d.take(32, "identity")
	var pk PublicKey
	if b != nil {
		copy(pk[:], b)
	}
	return pk
}

func (d *Decoder) OptionInt64() *int64 {
	tag := d.take(1, "option tag")
	if tag == nil || tag[0] == 0 {
		return nil
	}
	v := d.Int64()
	return &v
}

// =============================================================================
// COMPACT LENGTH PREFIX - used only inside transaction messages
// =============================================================================

// appendCompactU16 appends the variable-width length prefix the message
// format uses for its arrays.
func appendCompactU16(b []byte, n int) []byte {
	v := uint16(n)
	for {
		if v < 0x80 {
			return append(b, byte(v))
		}
		b = append(b, byte(v&0x7f)|0x80)
		v >>= 7
	}
}

// readCompactU16 reads the prefix back, returning the value and the number
// of bytes consumed, or -1 on malformed input.
func readCompactU16(b []byte) (int, int) {
	var v, shift uint
	for i := 0; i < 3 && i < len(b); i++ {
		v |= uint(b[i]&0x7f) << shift
		if b[i]&0x80 == 0 {
			return int(v), i + 1
		}
		shift += 7
	}
	return 0, -1
}
