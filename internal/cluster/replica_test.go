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

import (
	"bytes"
	"testing"

	"raftd/internal/config"
	"raftd/internal/logging"
)

func testReplica(t *testing.T, id, clusterSize int) *Replica {
	t.Helper()
	logging.SetGlobalOutput(&bytes.Buffer{})
	cfg := config.NewConfig(id, clusterSize, config.BasePort)
	return NewReplica(cfg, logging.NewLogger("test"))
}

func TestNewReplicaInitialState(t *testing.T) {
	r := testReplica(t, 0, 5)

	if r.Term() != 0 {
		t.Errorf("Term() = %d, want 0", r.Term())
	}
	if r.CommitIndex() != 0 {
		t.Errorf("CommitIndex() = %d, want 0", r.CommitIndex())
	}
	if r.LogLen() != 1 {
		t.Errorf("LogLen() = %d, want 1 (sentinel)", r.LogLen())
	}
	entry, ok := r.EntryAt(0)
	if !ok || entry.Term != 0 || entry.Value != 0 {
		t.Errorf("EntryAt(0) = %+v, ok=%v, want zero sentinel", entry, ok)
	}

	f, ok := r.RoleSnapshot().(FollowerRole)
	if !ok {
		t.Fatalf("initial role = %T, want FollowerRole", r.RoleSnapshot())
	}
	if f.VotedFor != nil {
		t.Error("expected no vote cast on a fresh replica")
	}
	if !f.HeartbeatReceived {
		t.Error("expected HeartbeatReceived=true on a fresh replica, to suppress an immediate election")
	}
}

func TestBecomeCandidateIncrementsTermAndSelfVotes(t *testing.T) {
	r := testReplica(t, 2, 5)

	r.mu.Lock()
	r.becomeCandidate()
	r.mu.Unlock()

	if r.Term() != 1 {
		t.Errorf("Term() = %d, want 1", r.Term())
	}
	c, ok := r.RoleSnapshot().(CandidateRole)
	if !ok {
		t.Fatalf("role = %T, want CandidateRole", r.RoleSnapshot())
	}
	if !c.VotedBy[2] {
		t.Error("expected self-vote recorded at own id")
	}
	if c.voteCount() != 1 {
		t.Errorf("voteCount() = %d, want 1", c.voteCount())
	}
}

func TestBecomeLeaderInitializesIndices(t *testing.T) {
	r := testReplica(t, 1, 5)

	r.mu.Lock()
	r.entries = append(r.entries, LogEntry{Term: 1, Value: 42})
	r.becomeLeader()
	r.mu.Unlock()

	l, ok := r.RoleSnapshot().(LeaderRole)
	if !ok {
		t.Fatalf("role = %T, want LeaderRole", r.RoleSnapshot())
	}
	for i, next := range l.NextIndex {
		if next != 2 {
			t.Errorf("NextIndex[%d] = %d, want 2", i, next)
		}
	}
	if l.MatchIndex[1] != 1 {
		t.Errorf("MatchIndex[self] = %d, want 1", l.MatchIndex[1])
	}
}

func TestBecomeFollowerAdoptsTermAndLeader(t *testing.T) {
	r := testReplica(t, 0, 5)

	r.mu.Lock()
	r.becomeCandidate()
	leader := 3
	r.becomeFollower(&leader, 7)
	r.mu.Unlock()

	if r.Term() != 7 {
		t.Errorf("Term() = %d, want 7", r.Term())
	}
	f, ok := r.RoleSnapshot().(FollowerRole)
	if !ok {
		t.Fatalf("role = %T, want FollowerRole", r.RoleSnapshot())
	}
	if f.VotedFor == nil || *f.VotedFor != 3 {
		t.Errorf("VotedFor = %v, want pointer to 3", f.VotedFor)
	}
	if !f.HeartbeatReceived {
		t.Error("expected HeartbeatReceived=true after becoming a follower")
	}
}
