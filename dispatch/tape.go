// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TapeRecord is one host-call audit entry: a fixed-shape,
// order-preserving record written once per host_call.
type TapeRecord struct {
	FnID         uint32
	ReqLen       uint32
	RespLen      uint32
	Units        uint32
	GasPre       uint64
	GasPost      uint64
	ReqHash      [32]byte
	RespHash     [32]byte
	IsError      bool
	ChargeFailed bool
}

// JSON renders the record in a fixed field order and shape, suitable
// for cross-language tape hashing:
// {"fnId":u32,"reqLen":u32,"respLen":u32,"units":u32,"gasPre":"<u64>","gasPost":"<u64>","isError":bool,"chargeFailed":bool,"reqHash":"<hex64>","respHash":"<hex64>"}
func (r TapeRecord) JSON() string {
	return fmt.Sprintf(
		`{"fnId":%d,"reqLen":%d,"respLen":%d,"units":%d,"gasPre":"%d","gasPost":"%d","isError":%t,"chargeFailed":%t,"reqHash":"%s","respHash":"%s"}`,
		r.FnID, r.ReqLen, r.RespLen, r.Units, r.GasPre, r.GasPost, r.IsError, r.ChargeFailed,
		hex.EncodeToString(r.ReqHash[:]), hex.EncodeToString(r.RespHash[:]),
	)
}

// Tape is the dispatcher's bounded audit buffer. Once capacity is
// reached, further records are discarded without disturbing existing
// entries — drop-newest.
type Tape struct {
	capacity int
	records  []TapeRecord
	dropped  int
}

// NewTape creates a Tape with the given capacity. Capacity 0 disables
// recording: every Append is dropped.
func NewTape(capacity int) *Tape {
	return &Tape{capacity: capacity}
}

// Append records r unless the tape is already at capacity, in which case
// it reports false and leaves existing records untouched.
func (t *Tape) Append(r TapeRecord) bool {
	if len(t.records) >= t.capacity {
		t.dropped++
		return false
	}
	t.records = append(t.records, r)
	return true
}

// Records returns the tape's recorded entries in call order.
func (t *Tape) Records() []TapeRecord { return t.records }

// Dropped returns how many records were discarded due to capacity.
func (t *Tape) Dropped() int { return t.dropped }

// Hash concatenates each record's JSON form in order and returns the
// lowercase hex SHA-256 digest.
func (t *Tape) Hash() string {
	var b strings.Builder
	for _, r := range t.records {
		b.WriteString(r.JSON())
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
