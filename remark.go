package chainpay

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/liberland/chainpay/schema"
)

// Remark payloads are pako-deflated SCALE blobs carried in the transfer
// remark field as a hex string. Two schemas are in circulation: the
// government disbursement record and the user purchase record. Decoding
// tries them in that order; anything that parses under neither is
// classified VariantNone and never propagates an error past this file.

var remarkDecoders = []func([]byte) (schema.DecodedRemark, bool){
	decodeGovRemark,
	decodeUserRemark,
}

// DecodeRemark turns a raw hex remark into its structured form. All
// failures (bad hex, corrupt stream, schema mismatch) degrade to
// VariantNone.
func DecodeRemark(rawHexRemark string) schema.DecodedRemark {
	raw, err := hexToBytes(rawHexRemark)
	if err != nil {
		return schema.DecodedRemark{Variant: schema.VariantNone}
	}
	plain, err := inflate(raw)
	if err != nil {
		return schema.DecodedRemark{Variant: schema.VariantNone}
	}
	for _, decode := range remarkDecoders {
		if dec, ok := decode(plain); ok {
			return dec
		}
	}
	return schema.DecodedRemark{Variant: schema.VariantNone}
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) == 0 {
		return nil, errors.New("empty remark")
	}
	return hex.DecodeString(s)
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func deflate(data []byte) []byte {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

func decodeGovRemark(data []byte) (schema.DecodedRemark, bool) {
	dec := newScaleDecoder(data)
	info := &schema.RemarkInfo{}
	var ok bool
	if info.Category, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.Project, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.Supplier, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.Description, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.FinalDestination, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.AmountInUSDAtDateOfPayment, ok = dec.u64(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.Date, ok = dec.u64(); !ok {
		return schema.DecodedRemark{}, false
	}
	if info.Currency, ok = dec.text(); !ok {
		return schema.DecodedRemark{}, false
	}
	if !dec.done() {
		return schema.DecodedRemark{}, false
	}
	return schema.DecodedRemark{Variant: schema.VariantGov, Gov: info}, true
}

func decodeUserRemark(data []byte) (schema.DecodedRemark, bool) {
	dec := newScaleDecoder(data)
	id, ok := dec.u64()
	if !ok {
		return schema.DecodedRemark{}, false
	}
	desc, ok := dec.text()
	if !ok {
		return schema.DecodedRemark{}, false
	}
	if !dec.done() {
		return schema.DecodedRemark{}, false
	}
	info := &schema.RemarkInfoUser{
		Id:          new(big.Int).SetUint64(id).String(),
		Description: desc,
	}
	return schema.DecodedRemark{Variant: schema.VariantUser, User: info}, true
}

// NormalizeOrderId brings hex and decimal spellings of the same integer
// id to one canonical decimal form, so "0x2a" and "42" compare equal.
// Non-numeric ids pass through unchanged.
func NormalizeOrderId(id string) string {
	if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
		if n, ok := new(big.Int).SetString(id[2:], 16); ok {
			return n.String()
		}
		return id
	}
	if n, ok := new(big.Int).SetString(id, 10); ok {
		return n.String()
	}
	return id
}

// scale decoding, just enough for the two remark schemas: compact
// length prefixed utf8 text and little-endian u64.

type scaleDecoder struct {
	data []byte
	pos  int
}

func newScaleDecoder(data []byte) *scaleDecoder {
	return &scaleDecoder{data: data}
}

func (d *scaleDecoder) done() bool {
	return d.pos == len(d.data)
}

func (d *scaleDecoder) u64() (uint64, bool) {
	if d.pos+8 > len(d.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8
	return v, true
}

func (d *scaleDecoder) compactLen() (int, bool) {
	if d.pos >= len(d.data) {
		return 0, false
	}
	b0 := d.data[d.pos]
	switch b0 & 0x03 {
	case 0:
		d.pos++
		return int(b0 >> 2), true
	case 1:
		if d.pos+2 > len(d.data) {
			return 0, false
		}
		v := uint16(d.data[d.pos]) | uint16(d.data[d.pos+1])<<8
		d.pos += 2
		return int(v >> 2), true
	case 2:
		if d.pos+4 > len(d.data) {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(d.data[d.pos : d.pos+4])
		d.pos += 4
		return int(v >> 2), true
	default:
		// big-integer mode never shows up in remark text lengths
		return 0, false
	}
}

func (d *scaleDecoder) text() (string, bool) {
	n, ok := d.compactLen()
	if !ok {
		return "", false
	}
	if n < 0 || d.pos+n > len(d.data) {
		return "", false
	}
	raw := d.data[d.pos : d.pos+n]
	d.pos += n
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// scale encoding, for callers that construct remarks themselves.

type scaleEncoder struct {
	buf bytes.Buffer
}

func (e *scaleEncoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *scaleEncoder) compactLen(n int) {
	switch {
	case n < 1<<6:
		e.buf.WriteByte(byte(n) << 2)
	case n < 1<<14:
		v := uint16(n)<<2 | 1
		e.buf.WriteByte(byte(v))
		e.buf.WriteByte(byte(v >> 8))
	default:
		v := uint32(n)<<2 | 2
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		e.buf.Write(b[:])
	}
}

func (e *scaleEncoder) text(s string) {
	e.compactLen(len(s))
	e.buf.WriteString(s)
}

// EncodeUserRemark produces the hex wire form of a user purchase remark.
func EncodeUserRemark(id uint64, description string) string {
	enc := &scaleEncoder{}
	enc.u64(id)
	enc.text(description)
	return "0x" + hex.EncodeToString(deflate(enc.buf.Bytes()))
}

// EncodeGovRemark produces the hex wire form of a government
// disbursement remark.
func EncodeGovRemark(info schema.RemarkInfo) string {
	enc := &scaleEncoder{}
	enc.text(info.Category)
	enc.text(info.Project)
	enc.text(info.Supplier)
	enc.text(info.Description)
	enc.text(info.FinalDestination)
	enc.u64(info.AmountInUSDAtDateOfPayment)
	enc.u64(info.Date)
	enc.text(info.Currency)
	return "0x" + hex.EncodeToString(deflate(enc.buf.Bytes()))
}
