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

import "testing"

func TestFollowerVotedFor(t *testing.T) {
	id := 2
	f := FollowerRole{VotedFor: &id}
	if !f.votedFor(2) {
		t.Error("expected votedFor(2) true")
	}
	if f.votedFor(3) {
		t.Error("expected votedFor(3) false")
	}

	nilFollower := FollowerRole{}
	if nilFollower.votedFor(0) {
		t.Error("expected votedFor false when VotedFor is nil")
	}
}

func TestCandidateMajority(t *testing.T) {
	tests := []struct {
		name    string
		votedBy []bool
		want    bool
	}{
		{"self vote only of five", []bool{true, false, false, false, false}, false},
		{"two of five", []bool{true, true, false, false, false}, false},
		{"three of five", []bool{true, true, true, false, false}, true},
		{"all five", []bool{true, true, true, true, true}, true},
		{"majority of one", []bool{true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CandidateRole{VotedBy: tt.votedBy}
			if got := c.hasMajority(); got != tt.want {
				t.Errorf("hasMajority() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidateVoteCount(t *testing.T) {
	c := CandidateRole{VotedBy: []bool{true, false, true, false, true}}
	if got := c.voteCount(); got != 3 {
		t.Errorf("voteCount() = %d, want 3", got)
	}
}

func TestLeaderMedianMatchIndex(t *testing.T) {
	tests := []struct {
		name       string
		matchIndex []int
		want       int
	}{
		{"all zero", []int{0, 0, 0, 0, 0}, 0},
		{"three ahead", []int{5, 5, 5, 0, 0}, 5},
		{"unsorted input", []int{3, 1, 4, 1, 5}, 3},
		{"single replica", []int{7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LeaderRole{MatchIndex: tt.matchIndex}
			if got := l.medianMatchIndex(); got != tt.want {
				t.Errorf("medianMatchIndex() = %d, want %d", got, tt.want)
			}
			if len(l.MatchIndex) != len(tt.matchIndex) {
				t.Error("medianMatchIndex must not mutate MatchIndex")
			}
		})
	}
}

func TestRoleNames(t *testing.T) {
	if (FollowerRole{}).roleName() != "FOLLOWER" {
		t.Error("unexpected follower role name")
	}
	if (CandidateRole{}).roleName() != "CANDIDATE" {
		t.Error("unexpected candidate role name")
	}
	if (LeaderRole{}).roleName() != "LEADER" {
		t.Error("unexpected leader role name")
	}
}
