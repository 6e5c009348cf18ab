package store

import (
	"github.com/glycerine/greenpack/msgp"
)

// The Record codec follows the greenpack/msgp conventions: a map keyed
// by the msg tags, unknown keys skipped on decode.

// DecodeMsg implements msgp.Decodable
func (z *Record) DecodeMsg(dc *msgp.Reader) (err error) {
	var field []byte
	_ = field
	var n uint32
	n, err = dc.ReadMapHeader()
	if err != nil {
		return
	}
	for n > 0 {
		n--
		field, err = dc.ReadMapKey(field)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "seq":
			z.Seq, err = dc.ReadInt64()
		case "fingerprint":
			z.Fingerprint, err = dc.ReadUint64()
		case "source":
			z.Source, err = dc.ReadString()
		case "result":
			z.Result, err = dc.ReadString()
		case "steps":
			z.Steps, err = dc.ReadInt()
		case "ts":
			z.Ts, err = dc.ReadInt64()
		default:
			err = dc.Skip()
		}
		if err != nil {
			return
		}
	}
	return
}

// EncodeMsg implements msgp.Encodable
func (z *Record) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(6); err != nil {
		return
	}
	if err = en.WriteString("seq"); err != nil {
		return
	}
	if err = en.WriteInt64(z.Seq); err != nil {
		return
	}
	if err = en.WriteString("fingerprint"); err != nil {
		return
	}
	if err = en.WriteUint64(z.Fingerprint); err != nil {
		return
	}
	if err = en.WriteString("source"); err != nil {
		return
	}
	if err = en.WriteString(z.Source); err != nil {
		return
	}
	if err = en.WriteString("result"); err != nil {
		return
	}
	if err = en.WriteString(z.Result); err != nil {
		return
	}
	if err = en.WriteString("steps"); err != nil {
		return
	}
	if err = en.WriteInt(z.Steps); err != nil {
		return
	}
	if err = en.WriteString("ts"); err != nil {
		return
	}
	err = en.WriteInt64(z.Ts)
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Record) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 6)
	o = msgp.AppendString(o, "seq")
	o = msgp.AppendInt64(o, z.Seq)
	o = msgp.AppendString(o, "fingerprint")
	o = msgp.AppendUint64(o, z.Fingerprint)
	o = msgp.AppendString(o, "source")
	o = msgp.AppendString(o, z.Source)
	o = msgp.AppendString(o, "result")
	o = msgp.AppendString(o, z.Result)
	o = msgp.AppendString(o, "steps")
	o = msgp.AppendInt(o, z.Steps)
	o = msgp.AppendString(o, "ts")
	o = msgp.AppendInt64(o, z.Ts)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Record) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var nbs msgp.NilBitsStack
	var field []byte
	_ = field
	var n uint32
	n, bts, err = nbs.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for n > 0 {
		n--
		field, bts, err = nbs.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "seq":
			z.Seq, bts, err = nbs.ReadInt64Bytes(bts)
		case "fingerprint":
			z.Fingerprint, bts, err = nbs.ReadUint64Bytes(bts)
		case "source":
			z.Source, bts, err = nbs.ReadStringBytes(bts)
		case "result":
			z.Result, bts, err = nbs.ReadStringBytes(bts)
		case "steps":
			z.Steps, bts, err = nbs.ReadIntBytes(bts)
		case "ts":
			z.Ts, bts, err = nbs.ReadInt64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Record) Msgsize() (s int) {
	s = msgp.MapHeaderSize +
		4 + msgp.Int64Size +
		12 + msgp.Uint64Size +
		7 + msgp.StringPrefixSize + len(z.Source) +
		7 + msgp.StringPrefixSize + len(z.Result) +
		6 + msgp.IntSize +
		3 + msgp.Int64Size
	return
}
