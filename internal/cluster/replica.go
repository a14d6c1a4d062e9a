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
Package cluster implements the Raft replica at the core of raftd: the
role state machine, the role-driven driver loop, the AppendEntries/
RequestVote handlers, and the TCP listener that serves them.

State Machine:
==============

Each replica is in exactly one of three roles: Follower (passive, grants
votes and accepts replication from the current leader), Candidate
(soliciting votes for itself), or Leader (the sole node that appends new
entries and drives replication). Transitions are described in role.go and
replica.go's become* methods; every field that decides a transition or an
RPC response is read and written under a single mutex (replica.mu).

Term-Based Leadership:
=======================

term is a monotonically non-decreasing election epoch; at most one
leader exists for a given term.
*/
package cluster

import (
	"strconv"
	"sync"

	"raftd/internal/config"
	"raftd/internal/logging"
)

// LogEntry is one (term, value) pair in the replicated log. Index 0 is
// always the fixed sentinel LogEntry{Term: 0, Value: 0} and is never
// overwritten.
type LogEntry struct {
	Term  uint32
	Value uint32
}

// Replica is the single shared, mutex-guarded state a replica process
// drives. All three of its activities — listener, driver, logger — read
// and write a Replica only while holding mu.
type Replica struct {
	mu sync.Mutex

	id  int
	cfg config.Config
	log *logging.Logger

	term        uint32
	entries     []LogEntry
	commitIndex int
	role        Role
}

// NewReplica constructs a replica in its initial state: Follower with no
// vote cast and heartbeat_received=true (this suppresses an immediate
// election on process start), term 0, and a log holding only the
// sentinel entry.
func NewReplica(cfg config.Config, log *logging.Logger) *Replica {
	return &Replica{
		id:          cfg.ID,
		cfg:         cfg,
		log:         log,
		term:        0,
		entries:     []LogEntry{{Term: 0, Value: 0}},
		commitIndex: 0,
		role:        FollowerRole{VotedFor: nil, HeartbeatReceived: true},
	}
}

// ID returns the replica's id. Immutable after construction; safe
// without holding mu.
func (r *Replica) ID() int { return r.id }

// Term returns the current term.
func (r *Replica) Term() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.term
}

// RoleSnapshot returns the current role. Exposed for tests and the snapshot
// logger; callers must not mutate the returned value's slices in place.
func (r *Replica) RoleSnapshot() Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

// CommitIndex returns the current commit index.
func (r *Replica) CommitIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitIndex
}

// LogLen returns the number of entries in the log, sentinel included.
func (r *Replica) LogLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EntryAt returns a copy of the log entry at index, and whether it
// exists.
func (r *Replica) EntryAt(index int) (LogEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.entries) {
		return LogEntry{}, false
	}
	return r.entries[index], true
}

// lastLogIndex and lastLogTerm assume mu is held.
func (r *Replica) lastLogIndex() int { return len(r.entries) - 1 }
func (r *Replica) lastLogTerm() uint32 {
	return r.entries[r.lastLogIndex()].Term
}

// becomeCandidate transitions to Candidate from any role: a fresh vote
// tally with the self-vote already recorded, term incremented by one.
// Assumes mu is held.
func (r *Replica) becomeCandidate() {
	votedBy := make([]bool, r.cfg.ClusterSize)
	votedBy[r.id] = true
	r.role = CandidateRole{VotedBy: votedBy, Attempts: 0}
	r.term++
	r.log.Info("became candidate", "term", strconv.FormatUint(uint64(r.term), 10))
}

// becomeLeader transitions from Candidate to Leader upon reaching a
// majority of votes in the current term. term is unchanged. Assumes mu
// is held.
func (r *Replica) becomeLeader() {
	n := r.cfg.ClusterSize
	nextIndex := make([]int, n)
	matchIndex := make([]int, n)
	for i := range nextIndex {
		nextIndex[i] = len(r.entries)
	}
	matchIndex[r.id] = len(r.entries) - 1
	r.role = LeaderRole{NextIndex: nextIndex, MatchIndex: matchIndex}
	r.log.Info("became leader", "term", strconv.FormatUint(uint64(r.term), 10))
}

// becomeFollower transitions to Follower(leader, true) from any role,
// adopting newTerm. Assumes mu is held.
func (r *Replica) becomeFollower(leader *int, newTerm uint32) {
	r.role = FollowerRole{VotedFor: leader, HeartbeatReceived: true}
	r.term = newTerm
	leaderStr := "none"
	if leader != nil {
		leaderStr = strconv.Itoa(*leader)
	}
	r.log.Debug("became follower", "term", strconv.FormatUint(uint64(newTerm), 10), "leader", leaderStr)
}
