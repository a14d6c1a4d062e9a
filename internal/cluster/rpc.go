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

package cluster

import "raftd/internal/protocol"

// buildAppendEntriesRequest forms the AppendEntries the leader sends to
// peer p. Assumes mu is held and the role is Leader.
func (r *Replica) buildAppendEntriesRequest(p int) protocol.AppendEntriesRequest {
	leader := r.role.(LeaderRole)
	nextIdx := leader.NextIndex[p]
	prevLogIndex := nextIdx - 1

	req := protocol.AppendEntriesRequest{
		ID:           uint32(r.id),
		Term:         r.term,
		PrevLogIndex: uint32(prevLogIndex),
		PrevLogTerm:  r.entries[prevLogIndex].Term,
		CommitIndex:  uint32(r.commitIndex),
	}
	if nextIdx < len(r.entries) {
		req.HasEntry = true
		req.EntryTerm = r.entries[nextIdx].Term
		req.EntryValue = r.entries[nextIdx].Value
	}
	return req
}

// buildRequestVoteRequest forms the RequestVote a candidate sends to
// every peer.
func (r *Replica) buildRequestVoteRequest() protocol.RequestVoteRequest {
	return protocol.RequestVoteRequest{
		ID:           uint32(r.id),
		Term:         r.term,
		LastLogIndex: uint32(r.lastLogIndex()),
		LastLogTerm:  r.lastLogTerm(),
	}
}

// HandleRequest dispatches an inbound AppendEntries or RequestVote and
// returns the response frame to send back. Acquires mu itself; callers
// (the listener's per-connection handler) must not already hold it.
func (r *Replica) HandleRequest(req protocol.Request) protocol.Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.AppendEntries != nil {
		return protocol.Response{AppendEntries: r.handleAppendEntriesLocked(*req.AppendEntries)}
	}
	return protocol.Response{RequestVote: r.handleRequestVoteLocked(*req.RequestVote)}
}

// handleAppendEntriesLocked implements the follower side of AppendEntries,
// including the local-propose injection path. Assumes mu is held.
func (r *Replica) handleAppendEntriesLocked(req protocol.AppendEntriesRequest) *protocol.AppendEntriesResponse {
	// Local propose injection: a client frame with id == LocalProposeID
	// and a populated entry appends directly to the local log, bypassing
	// the normal term/log checks entirely.
	if req.ID == protocol.LocalProposeID {
		resp := &protocol.AppendEntriesResponse{ID: uint32(r.id), Term: r.term}
		if req.HasEntry {
			r.entries = append(r.entries, LogEntry{Term: req.EntryTerm, Value: req.EntryValue})
			if leader, ok := r.role.(LeaderRole); ok {
				leader.NextIndex[r.id] = len(r.entries)
				leader.MatchIndex[r.id] = len(r.entries) - 1
				r.role = leader
			}
			resp.Success = true
		}
		return resp
	}

	success := false
	matchIndex := 0

	_, isFollower := r.role.(FollowerRole)
	if r.term < req.Term || (r.term == req.Term && isFollower) {
		leaderID := int(req.ID)
		r.becomeFollower(&leaderID, req.Term)

		if len(r.entries) > int(req.PrevLogIndex) && r.entries[req.PrevLogIndex].Term == req.PrevLogTerm {
			success = true
			matchIndex = int(req.PrevLogIndex)

			newCommit := len(r.entries) - 1
			if int(req.CommitIndex) < newCommit {
				newCommit = int(req.CommitIndex)
			}
			if newCommit > r.commitIndex {
				r.commitIndex = newCommit
			}

			if req.HasEntry {
				entry := LogEntry{Term: req.EntryTerm, Value: req.EntryValue}
				if len(r.entries) == int(req.PrevLogIndex)+1 {
					r.entries = append(r.entries, entry)
				} else {
					r.entries[req.PrevLogIndex+1] = entry
				}
				matchIndex++
			}
		}
	}

	return &protocol.AppendEntriesResponse{
		ID:         uint32(r.id),
		Term:       r.term,
		Success:    success,
		MatchIndex: uint32(matchIndex),
	}
}

// handleRequestVoteLocked implements the voter side of RequestVote.
// Assumes mu is held.
func (r *Replica) handleRequestVoteLocked(req protocol.RequestVoteRequest) *protocol.RequestVoteResponse {
	follower, isFollower := r.role.(FollowerRole)
	granted := r.term == req.Term && isFollower && follower.votedFor(int(req.ID))

	if !granted {
		logOK := r.lastLogTerm() < req.LastLogTerm ||
			(r.lastLogTerm() == req.LastLogTerm && uint32(r.lastLogIndex()) <= req.LastLogIndex)
		granted = r.term < req.Term && logOK
		if granted {
			candidate := int(req.ID)
			r.becomeFollower(&candidate, req.Term)
		}
	}

	if req.Term > r.term {
		r.term = req.Term
	}

	return &protocol.RequestVoteResponse{ID: uint32(r.id), Term: r.term, Granted: granted}
}

// HandleResponse folds the response to an outbound RPC back into replica
// state. Returns whether the driver should retry immediately rather than
// wait for the next scheduled pass. Acquires mu itself.
func (r *Replica) HandleResponse(res protocol.Response) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.AppendEntries != nil {
		return r.handleAppendEntriesResponseLocked(*res.AppendEntries)
	}
	return r.handleRequestVoteResponseLocked(*res.RequestVote)
}

func (r *Replica) handleAppendEntriesResponseLocked(res protocol.AppendEntriesResponse) bool {
	leader, isLeader := r.role.(LeaderRole)
	if res.Term < r.term || !isLeader {
		return false
	}

	peer := int(res.ID)
	if res.Success {
		leader.MatchIndex[peer] = int(res.MatchIndex)
		leader.NextIndex[peer] = int(res.MatchIndex) + 1
		r.role = leader

		if median := leader.medianMatchIndex(); median > r.commitIndex {
			r.commitIndex = median
		}
		return leader.NextIndex[peer] < len(r.entries)
	}

	if res.Term == r.term {
		if leader.NextIndex[peer] > 1 {
			leader.NextIndex[peer]--
		}
		r.role = leader
		return true
	}

	r.becomeFollower(nil, res.Term)
	return false
}

func (r *Replica) handleRequestVoteResponseLocked(res protocol.RequestVoteResponse) bool {
	candidate, isCandidate := r.role.(CandidateRole)
	if res.Term < r.term || !isCandidate {
		return false
	}

	if res.Granted {
		candidate.VotedBy[res.ID] = true
		r.role = candidate
		if candidate.hasMajority() {
			r.becomeLeader()
		}
	} else if res.Term > r.term {
		r.becomeFollower(nil, res.Term)
	}
	return false
}
