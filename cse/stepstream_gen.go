package cse

// NOTE: THIS FILE WAS PRODUCED BY THE
// MSGP CODE GENERATION TOOL (github.com/tinylib/msgp)
// DO NOT EDIT

import (
	"github.com/tinylib/msgp/msgp"
)

// DecodeMsg implements msgp.Decodable
func (z *StepRecord) DecodeMsg(dc *msgp.Reader) (err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, err = dc.ReadMapHeader()
	if err != nil {
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, err = dc.ReadMapKeyPtr()
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "step":
			z.Step, err = dc.ReadInt()
			if err != nil {
				return
			}
		case "env":
			z.Env, err = dc.ReadString()
			if err != nil {
				return
			}
		case "stash":
			var zb0002 uint32
			zb0002, err = dc.ReadArrayHeader()
			if err != nil {
				return
			}
			if cap(z.Stash) >= int(zb0002) {
				z.Stash = (z.Stash)[:zb0002]
			} else {
				z.Stash = make([]string, zb0002)
			}
			for za0001 := range z.Stash {
				z.Stash[za0001], err = dc.ReadString()
				if err != nil {
					return
				}
			}
		case "control":
			var zb0003 uint32
			zb0003, err = dc.ReadArrayHeader()
			if err != nil {
				return
			}
			if cap(z.Control) >= int(zb0003) {
				z.Control = (z.Control)[:zb0003]
			} else {
				z.Control = make([]string, zb0003)
			}
			for za0002 := range z.Control {
				z.Control[za0002], err = dc.ReadString()
				if err != nil {
					return
				}
			}
		default:
			err = dc.Skip()
			if err != nil {
				return
			}
		}
	}
	return
}

// EncodeMsg implements msgp.Encodable
func (z *StepRecord) EncodeMsg(en *msgp.Writer) (err error) {
	// map header, size 4
	// write "step"
	err = en.Append(0x84, 0xa4, 0x73, 0x74, 0x65, 0x70)
	if err != nil {
		return
	}
	err = en.WriteInt(z.Step)
	if err != nil {
		return
	}
	// write "env"
	err = en.Append(0xa3, 0x65, 0x6e, 0x76)
	if err != nil {
		return
	}
	err = en.WriteString(z.Env)
	if err != nil {
		return
	}
	// write "stash"
	err = en.Append(0xa5, 0x73, 0x74, 0x61, 0x73, 0x68)
	if err != nil {
		return
	}
	err = en.WriteArrayHeader(uint32(len(z.Stash)))
	if err != nil {
		return
	}
	for za0001 := range z.Stash {
		err = en.WriteString(z.Stash[za0001])
		if err != nil {
			return
		}
	}
	// write "control"
	err = en.Append(0xa7, 0x63, 0x6f, 0x6e, 0x74, 0x72, 0x6f, 0x6c)
	if err != nil {
		return
	}
	err = en.WriteArrayHeader(uint32(len(z.Control)))
	if err != nil {
		return
	}
	for za0002 := range z.Control {
		err = en.WriteString(z.Control[za0002])
		if err != nil {
			return
		}
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *StepRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// map header, size 4
	// string "step"
	o = append(o, 0x84, 0xa4, 0x73, 0x74, 0x65, 0x70)
	o = msgp.AppendInt(o, z.Step)
	// string "env"
	o = append(o, 0xa3, 0x65, 0x6e, 0x76)
	o = msgp.AppendString(o, z.Env)
	// string "stash"
	o = append(o, 0xa5, 0x73, 0x74, 0x61, 0x73, 0x68)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Stash)))
	for za0001 := range z.Stash {
		o = msgp.AppendString(o, z.Stash[za0001])
	}
	// string "control"
	o = append(o, 0xa7, 0x63, 0x6f, 0x6e, 0x74, 0x72, 0x6f, 0x6c)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Control)))
	for za0002 := range z.Control {
		o = msgp.AppendString(o, z.Control[za0002])
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *StepRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "step":
			z.Step, bts, err = msgp.ReadIntBytes(bts)
			if err != nil {
				return
			}
		case "env":
			z.Env, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				return
			}
		case "stash":
			var zb0002 uint32
			zb0002, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				return
			}
			if cap(z.Stash) >= int(zb0002) {
				z.Stash = (z.Stash)[:zb0002]
			} else {
				z.Stash = make([]string, zb0002)
			}
			for za0001 := range z.Stash {
				z.Stash[za0001], bts, err = msgp.ReadStringBytes(bts)
				if err != nil {
					return
				}
			}
		case "control":
			var zb0003 uint32
			zb0003, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				return
			}
			if cap(z.Control) >= int(zb0003) {
				z.Control = (z.Control)[:zb0003]
			} else {
				z.Control = make([]string, zb0003)
			}
			for za0002 := range z.Control {
				z.Control[za0002], bts, err = msgp.ReadStringBytes(bts)
				if err != nil {
					return
				}
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *StepRecord) Msgsize() (s int) {
	s = 1 + 5 + msgp.IntSize + 4 + msgp.StringPrefixSize + len(z.Env) + 6 + msgp.ArrayHeaderSize
	for za0001 := range z.Stash {
		s += msgp.StringPrefixSize + len(z.Stash[za0001])
	}
	s += 8 + msgp.ArrayHeaderSize
	for za0002 := range z.Control {
		s += msgp.StringPrefixSize + len(z.Control[za0002])
	}
	return
}
