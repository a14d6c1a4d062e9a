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

// Role is the tagged union of the three states a replica can be in.
// Each concrete type carries only the fields meaningful to that role, so
// a leader's next_index/match_index bookkeeping is unrepresentable while
// the replica is a Follower or Candidate.
type Role interface {
	roleName() string
}

// FollowerRole is the default role. VotedFor records the candidate
// granted a vote in the current term (nil means no vote cast yet).
// HeartbeatReceived is the election-timeout flag: set by any valid
// AppendEntries delivery, cleared once per driver pass.
type FollowerRole struct {
	VotedFor          *int
	HeartbeatReceived bool
}

func (FollowerRole) roleName() string { return "FOLLOWER" }

// votedFor reports whether this follower has already granted its vote
// to candidate id in the current term.
func (f FollowerRole) votedFor(id int) bool {
	return f.VotedFor != nil && *f.VotedFor == id
}

// CandidateRole tracks votes granted by each peer (self-vote set
// immediately on transition) and the count of consecutive election
// rounds that failed to reach a majority.
type CandidateRole struct {
	VotedBy  []bool
	Attempts uint32
}

func (CandidateRole) roleName() string { return "CANDIDATE" }

func (c CandidateRole) voteCount() int {
	n := 0
	for _, v := range c.VotedBy {
		if v {
			n++
		}
	}
	return n
}

func (c CandidateRole) hasMajority() bool {
	return c.voteCount() > len(c.VotedBy)/2
}

// LeaderRole holds the leader-only replication bookkeeping for every
// peer, indexed by replica id, including the leader's own slot.
type LeaderRole struct {
	NextIndex  []int
	MatchIndex []int
}

func (LeaderRole) roleName() string { return "LEADER" }

// medianMatchIndex returns the element at position len/2 of MatchIndex
// sorted ascending. For an odd cluster size this is the median, the
// highest index a majority of replicas are known to have replicated; for
// an even size it is the upper median, which only half of the replicas
// are known to have reached.
func (l LeaderRole) medianMatchIndex() int {
	sorted := append([]int(nil), l.MatchIndex...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i] > sorted[j] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	return sorted[len(sorted)/2]
}
