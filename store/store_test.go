package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/glycerine/greenpack/msgp"
	cv "github.com/glycerine/goconvey/convey"
)

func panicOn(err error) {
	if err != nil {
		panic(err)
	}
}

func sampleRecords() []*Record {
	return []*Record{
		{Fingerprint: Fingerprint([]byte("(+ 1 2)")), Source: "(+ 1 2)", Result: "3", Steps: 5, Ts: 1000},
		{Fingerprint: Fingerprint([]byte(`(display "hi")`)), Source: `(display "hi")`, Result: "#<void>", Steps: 4, Ts: 2000},
	}
}

func Test600FingerprintIsStableAndDistinguishesSources(t *testing.T) {

	cv.Convey(`Given the same source twice and a different source, the fingerprints should match only for the same source`, t, func() {
		a := Fingerprint([]byte("(define x 10)"))
		b := Fingerprint([]byte("(define x 10)"))
		c := Fingerprint([]byte("(define x 11)"))
		cv.So(a, cv.ShouldEqual, b)
		cv.So(a, cv.ShouldNotEqual, c)
	})
}

func Test601MemoryStoreAssignsSequenceNumbers(t *testing.T) {

	cv.Convey(`Given records appended to a memory store, List should return them in order with 1-based sequence numbers`, t, func() {
		s := NewMemory()
		defer s.Close()
		for _, r := range sampleRecords() {
			panicOn(s.Append(r))
		}
		recs, err := s.List()
		panicOn(err)
		cv.So(len(recs), cv.ShouldEqual, 2)
		cv.So(recs[0].Seq, cv.ShouldEqual, 1)
		cv.So(recs[1].Seq, cv.ShouldEqual, 2)
		cv.So(recs[1].Source, cv.ShouldEqual, `(display "hi")`)
	})
}

func Test602SQLiteStorePersistsAcrossReopen(t *testing.T) {

	cv.Convey(`Given records appended to a SQLite store, reopening the database should list the same records`, t, func() {
		path := filepath.Join(t.TempDir(), "history.db")
		s, err := NewSQLite(path)
		panicOn(err)
		want := sampleRecords()
		for _, r := range want {
			panicOn(s.Append(r))
		}
		cv.So(want[0].Seq, cv.ShouldEqual, 1)
		panicOn(s.Close())

		s2, err := NewSQLite(path)
		panicOn(err)
		defer s2.Close()
		recs, err := s2.List()
		panicOn(err)
		cv.So(len(recs), cv.ShouldEqual, 2)
		cv.So(recs[0], cv.ShouldResemble, *want[0])
		cv.So(recs[1], cv.ShouldResemble, *want[1])
	})
}

func Test603SnapshotRoundTrip(t *testing.T) {

	cv.Convey(`Given a history saved as a greenpack snapshot, loading it back should give the same records`, t, func() {
		var recs []Record
		for i, r := range sampleRecords() {
			r.Seq = int64(i + 1)
			recs = append(recs, *r)
		}
		var buf bytes.Buffer
		panicOn(SaveSnapshot(&buf, recs))
		back, err := LoadSnapshot(&buf)
		panicOn(err)
		cv.So(back, cv.ShouldResemble, recs)
	})

	cv.Convey(`Given a single record, MarshalMsg and UnmarshalMsg should agree with each other and consume every byte`, t, func() {
		r := *sampleRecords()[0]
		by, err := r.MarshalMsg(nil)
		panicOn(err)
		cv.So(len(by), cv.ShouldBeLessThanOrEqualTo, r.Msgsize())
		var back Record
		rest, err := back.UnmarshalMsg(by)
		panicOn(err)
		cv.So(len(rest), cv.ShouldEqual, 0)
		cv.So(back, cv.ShouldResemble, r)
	})

	cv.Convey(`Given a record written by a newer version with an extra field, UnmarshalMsg should skip it`, t, func() {
		by := msgp.AppendMapHeader(nil, 3)
		by = msgp.AppendString(by, "origin")
		by = msgp.AppendString(by, "repl")
		by = msgp.AppendString(by, "seq")
		by = msgp.AppendInt64(by, 7)
		by = msgp.AppendString(by, "source")
		by = msgp.AppendString(by, "(f)")
		var back Record
		rest, err := back.UnmarshalMsg(by)
		panicOn(err)
		cv.So(len(rest), cv.ShouldEqual, 0)
		cv.So(back.Seq, cv.ShouldEqual, 7)
		cv.So(back.Source, cv.ShouldEqual, "(f)")
	})
}

func Test604ExportJSON(t *testing.T) {

	cv.Convey(`Given an exported history, the JSON should carry the tagged field names and import back`, t, func() {
		var recs []Record
		for _, r := range sampleRecords() {
			recs = append(recs, *r)
		}
		path := filepath.Join(t.TempDir(), "history.json")
		f, err := os.Create(path)
		panicOn(err)
		panicOn(ExportJSON(f, recs))
		panicOn(f.Close())

		data, err := os.ReadFile(path)
		panicOn(err)
		cv.So(string(data), cv.ShouldContainSubstring, `"source"`)
		cv.So(string(data), cv.ShouldContainSubstring, `"fingerprint"`)
		back, err := ImportJSON(data)
		panicOn(err)
		cv.So(back, cv.ShouldResemble, recs)
	})
}
