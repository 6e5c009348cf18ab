// Package store keeps the history of chunks evaluated by a session.
package store

import (
	"encoding/binary"

	"github.com/glycerine/blake2b"
)

// Record is one evaluated chunk. Seq is assigned by the Store.
type Record struct {
	Seq         int64  `json:"seq" msg:"seq"`
	Fingerprint uint64 `json:"fingerprint" msg:"fingerprint"`
	Source      string `json:"source" msg:"source"`
	Result      string `json:"result" msg:"result"`
	Steps       int    `json:"steps" msg:"steps"`
	Ts          int64  `json:"ts" msg:"ts"`
}

// Store is the interface for history persistence.
type Store interface {
	// Append assigns rec the next sequence number and saves it.
	Append(rec *Record) error
	// List returns every record in sequence order.
	List() ([]Record, error)
	// Close releases resources.
	Close() error
}

// Fingerprint returns an 8 byte BLAKE2b hash of the raw source, so that
// repeated evaluations of the same chunk can be spotted in the history.
func Fingerprint(raw []byte) uint64 {
	cfg := &blake2b.Config{Size: 8}
	h, err := blake2b.New(cfg)
	if err != nil {
		panic(err)
	}
	h.Write(raw)
	by := h.Sum(nil)
	return binary.LittleEndian.Uint64(by[:8])
}
