/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package protocol implements the fixed-width Raft wire frame used between
replicas.

Frame Format:
=============

Every request and response is exactly 32 bytes, big-endian, no length
prefix:

	AppendEntries request  (tag 0xFFFFFFFF):
	  0:4 tag | 4:8 id | 8:12 term | 12:16 prevLogIndex | 16:20 prevLogTerm
	  | 20:24 commitIndex | 24:28 entryTerm (0 = no entry) | 28:32 entryValue

	RequestVote request     (tag 0x00000000):
	  0:4 tag | 4:8 id | 8:12 term | 12:16 lastLogIndex | 16:20 lastLogTerm
	  | 20:32 zero pad

	AppendEntries response  (tag 0xFFFFFFFF):
	  0:4 tag | 4:8 id | 8:12 term | 12:16 success (0xFF*4 / 0x00*4)
	  | 16:20 matchIndex | 20:32 0xFF pad

	RequestVote response    (tag 0x00000000):
	  0:4 tag | 4:8 id | 8:12 term | 12:16 granted (0xFF*4 / 0x00*4)
	  | 16:32 zero pad

An entry with term 0 is indistinguishable on the wire from "no entry" at
bytes 24:28 — this is a known, intentional ambiguity (real log entries
always carry a term >= 1, since term increments always precede a leader
appending) and is not "fixed" here.
*/
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// FrameSize is the fixed size, in bytes, of every request and response.
const FrameSize = 32

const (
	tagAppendEntries uint32 = 0xFFFFFFFF
	tagRequestVote   uint32 = 0x00000000
)

// LocalProposeID is the sentinel replica id used by a local client to
// inject a log entry directly into a replica's log.
const LocalProposeID uint32 = 0xFFFFFFFF

// ErrShortFrame is returned when fewer than FrameSize bytes could be written.
var ErrShortFrame = errors.New("protocol: short frame")

// AppendEntriesRequest is the wire form of a leader's replication RPC.
type AppendEntriesRequest struct {
	ID           uint32
	Term         uint32
	PrevLogIndex uint32
	PrevLogTerm  uint32
	CommitIndex  uint32
	HasEntry     bool
	EntryTerm    uint32
	EntryValue   uint32
}

// AppendEntriesResponse is the wire form of a follower's reply.
type AppendEntriesResponse struct {
	ID         uint32
	Term       uint32
	Success    bool
	MatchIndex uint32
}

// RequestVoteRequest is the wire form of a candidate's vote solicitation.
type RequestVoteRequest struct {
	ID           uint32
	Term         uint32
	LastLogIndex uint32
	LastLogTerm  uint32
}

// RequestVoteResponse is the wire form of a voter's reply.
type RequestVoteResponse struct {
	ID      uint32
	Term    uint32
	Granted bool
}

func boolBytes(b bool) [4]byte {
	if b {
		return [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	}
	return [4]byte{0x00, 0x00, 0x00, 0x00}
}

func isTrue(b []byte) bool {
	return b[0] == 0xFF
}

// EncodeAppendEntriesRequest serialises a into a 32-byte frame.
func EncodeAppendEntriesRequest(a AppendEntriesRequest) [FrameSize]byte {
	var buf [FrameSize]byte
	binary.BigEndian.PutUint32(buf[0:4], tagAppendEntries)
	binary.BigEndian.PutUint32(buf[4:8], a.ID)
	binary.BigEndian.PutUint32(buf[8:12], a.Term)
	binary.BigEndian.PutUint32(buf[12:16], a.PrevLogIndex)
	binary.BigEndian.PutUint32(buf[16:20], a.PrevLogTerm)
	binary.BigEndian.PutUint32(buf[20:24], a.CommitIndex)
	if a.HasEntry {
		binary.BigEndian.PutUint32(buf[24:28], a.EntryTerm)
		binary.BigEndian.PutUint32(buf[28:32], a.EntryValue)
	}
	return buf
}

// EncodeRequestVoteRequest serialises v into a 32-byte frame.
func EncodeRequestVoteRequest(v RequestVoteRequest) [FrameSize]byte {
	var buf [FrameSize]byte
	binary.BigEndian.PutUint32(buf[0:4], tagRequestVote)
	binary.BigEndian.PutUint32(buf[4:8], v.ID)
	binary.BigEndian.PutUint32(buf[8:12], v.Term)
	binary.BigEndian.PutUint32(buf[12:16], v.LastLogIndex)
	binary.BigEndian.PutUint32(buf[16:20], v.LastLogTerm)
	return buf
}

// EncodeAppendEntriesResponse serialises r into a 32-byte frame.
func EncodeAppendEntriesResponse(r AppendEntriesResponse) [FrameSize]byte {
	var buf [FrameSize]byte
	binary.BigEndian.PutUint32(buf[0:4], tagAppendEntries)
	binary.BigEndian.PutUint32(buf[4:8], r.ID)
	binary.BigEndian.PutUint32(buf[8:12], r.Term)
	b := boolBytes(r.Success)
	copy(buf[12:16], b[:])
	binary.BigEndian.PutUint32(buf[16:20], r.MatchIndex)
	for i := 20; i < 32; i++ {
		buf[i] = 0xFF
	}
	return buf
}

// EncodeRequestVoteResponse serialises r into a 32-byte frame.
func EncodeRequestVoteResponse(r RequestVoteResponse) [FrameSize]byte {
	var buf [FrameSize]byte
	binary.BigEndian.PutUint32(buf[0:4], tagRequestVote)
	binary.BigEndian.PutUint32(buf[4:8], r.ID)
	binary.BigEndian.PutUint32(buf[8:12], r.Term)
	b := boolBytes(r.Granted)
	copy(buf[12:16], b[:])
	return buf
}

// Request is the union of the two inbound RPC shapes a listener may read.
type Request struct {
	AppendEntries *AppendEntriesRequest
	RequestVote   *RequestVoteRequest
}

// Response is the union of the two outbound RPC shapes a sender may read.
type Response struct {
	AppendEntries *AppendEntriesResponse
	RequestVote   *RequestVoteResponse
}

// DecodeRequest parses a 32-byte frame into whichever request shape its
// tag selects. The parse is tolerant by construction: any frame value is
// accepted as one of the two tagged variants.
func DecodeRequest(buf [FrameSize]byte) Request {
	if buf[0] == 0xFF {
		a := AppendEntriesRequest{
			ID:           binary.BigEndian.Uint32(buf[4:8]),
			Term:         binary.BigEndian.Uint32(buf[8:12]),
			PrevLogIndex: binary.BigEndian.Uint32(buf[12:16]),
			PrevLogTerm:  binary.BigEndian.Uint32(buf[16:20]),
			CommitIndex:  binary.BigEndian.Uint32(buf[20:24]),
		}
		entryTerm := binary.BigEndian.Uint32(buf[24:28])
		if entryTerm != 0 {
			a.HasEntry = true
			a.EntryTerm = entryTerm
			a.EntryValue = binary.BigEndian.Uint32(buf[28:32])
		}
		return Request{AppendEntries: &a}
	}
	v := RequestVoteRequest{
		ID:           binary.BigEndian.Uint32(buf[4:8]),
		Term:         binary.BigEndian.Uint32(buf[8:12]),
		LastLogIndex: binary.BigEndian.Uint32(buf[12:16]),
		LastLogTerm:  binary.BigEndian.Uint32(buf[16:20]),
	}
	return Request{RequestVote: &v}
}

// DecodeResponse parses a 32-byte frame into whichever response shape its
// tag selects.
func DecodeResponse(buf [FrameSize]byte) Response {
	if buf[0] == 0xFF {
		a := AppendEntriesResponse{
			ID:         binary.BigEndian.Uint32(buf[4:8]),
			Term:       binary.BigEndian.Uint32(buf[8:12]),
			Success:    isTrue(buf[12:16]),
			MatchIndex: binary.BigEndian.Uint32(buf[16:20]),
		}
		return Response{AppendEntries: &a}
	}
	v := RequestVoteResponse{
		ID:      binary.BigEndian.Uint32(buf[4:8]),
		Term:    binary.BigEndian.Uint32(buf[8:12]),
		Granted: isTrue(buf[12:16]),
	}
	return Response{RequestVote: &v}
}

// ReadFrame reads exactly FrameSize bytes from r.
func ReadFrame(r io.Reader) ([FrameSize]byte, error) {
	var buf [FrameSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return buf, err
	}
	return buf, nil
}

// WriteFrame writes exactly FrameSize bytes to w.
func WriteFrame(w io.Writer, buf [FrameSize]byte) error {
	n, err := w.Write(buf[:])
	if err != nil {
		return err
	}
	if n != FrameSize {
		return ErrShortFrame
	}
	return nil
}
