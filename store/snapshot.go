package store

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/glycerine/greenpack/msgp"
	"github.com/ugorji/go/codec"
)

// SaveSnapshot writes recs to w as a greenpack array of records.
func SaveSnapshot(w io.Writer, recs []Record) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(uint32(len(recs))); err != nil {
		return err
	}
	for i := range recs {
		if err := recs[i].EncodeMsg(mw); err != nil {
			return fmt.Errorf("error: greenpack encoding of record %d sees error '%v'", recs[i].Seq, err)
		}
	}
	return mw.Flush()
}

// LoadSnapshot reads back what SaveSnapshot wrote.
func LoadSnapshot(r io.Reader) ([]Record, error) {
	mr := msgp.NewReader(r)
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	recs := make([]Record, n)
	for i := range recs {
		if err := recs[i].DecodeMsg(mr); err != nil {
			return nil, fmt.Errorf("decoding record %d of %d: %w", i+1, n, err)
		}
	}
	return recs, nil
}

var jsonHandle = func() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	h.SignedInteger = true
	h.Canonical = true
	h.Indent = 2
	return h
}()

// ExportJSON writes recs to w as a JSON array.
func ExportJSON(w io.Writer, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, jsonHandle)
	if err := enc.Encode(recs); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// ImportJSON reads what ExportJSON wrote.
func ImportJSON(data []byte) ([]Record, error) {
	var recs []Record
	dec := codec.NewDecoderBytes(data, jsonHandle)
	if err := dec.Decode(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}
