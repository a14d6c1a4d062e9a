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
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"raftd/internal/errors"
	"raftd/internal/protocol"
)

// maxVoteRequestAttempts bounds consecutive election rounds before a
// candidate restarts its own election with a fresh term.
const maxVoteRequestAttempts = 4

// Run drives the replica forever: on each pass it acts according to the
// current role, then sleeps for a role-dependent duration plus a
// per-replica jittered millisecond component, so replicas' election
// timers desynchronize over time.
func (r *Replica) Run(ctx context.Context) {
	waitMS := uint32(1 + r.id)

	for {
		if ctx.Err() != nil {
			return
		}

		waitS := r.runOnePass(ctx)

		waitMS = (waitMS * 997) % 977
		select {
		case <-ctx.Done():
			return
		case <-time.After(waitS + time.Duration(waitMS)*time.Millisecond):
		}
	}
}

// runOnePass executes exactly one role-dependent driver action and
// returns the base (pre-jitter) sleep duration for the role that was
// active when the pass began.
func (r *Replica) runOnePass(ctx context.Context) time.Duration {
	r.mu.Lock()
	role := r.role
	r.mu.Unlock()

	h := r.cfg.HeartbeatInterval

	switch rl := role.(type) {
	case LeaderRole:
		retry := r.sendHeartbeats(ctx)
		if retry {
			return 0
		}
		return h

	case CandidateRole:
		r.requestVotes(ctx)
		r.mu.Lock()
		if c, ok := r.role.(CandidateRole); ok {
			c.Attempts++
			if c.Attempts > maxVoteRequestAttempts {
				r.becomeCandidate()
			} else {
				r.role = c
			}
		}
		r.mu.Unlock()
		return 2 * h

	case FollowerRole:
		r.mu.Lock()
		f, ok := r.role.(FollowerRole)
		if !ok {
			r.mu.Unlock()
			return 4 * h
		}
		if !f.HeartbeatReceived {
			r.becomeCandidate()
			r.mu.Unlock()
			return 0
		}
		f.HeartbeatReceived = false
		r.role = f
		r.mu.Unlock()
		return 4 * h

	default:
		_ = rl
		return h
	}
}

// sendHeartbeats fans an AppendEntries out to every peer and awaits all
// of them, OR-accumulating each peer's immediate-retry signal.
func (r *Replica) sendHeartbeats(ctx context.Context) bool {
	r.mu.Lock()
	n := r.cfg.ClusterSize
	self := r.id
	reqs := make([]protocol.AppendEntriesRequest, n)
	for p := 0; p < n; p++ {
		if p == self {
			continue
		}
		reqs[p] = r.buildAppendEntriesRequest(p)
	}
	r.mu.Unlock()

	var retryFlags = make([]bool, n)
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < n; p++ {
		if p == self {
			continue
		}
		p := p
		g.Go(func() error {
			retry, err := r.sendRequest(gctx, p, protocol.Request{AppendEntries: &reqs[p]})
			if err == nil {
				retryFlags[p] = retry
			} else if !errors.IsTransport(err) {
				r.log.Debug("unexpected heartbeat send error", "peer", strconv.Itoa(p), "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, retry := range retryFlags {
		if retry {
			return true
		}
	}
	return false
}

// requestVotes fans a RequestVote out to every peer without waiting for
// the results: each send's response is folded back in by its own
// goroutine via HandleResponse.
func (r *Replica) requestVotes(ctx context.Context) {
	r.mu.Lock()
	n := r.cfg.ClusterSize
	self := r.id
	req := r.buildRequestVoteRequest()
	r.mu.Unlock()

	for p := 0; p < n; p++ {
		if p == self {
			continue
		}
		p := p
		go func() {
			_, _ = r.sendRequest(ctx, p, protocol.Request{RequestVote: &req})
		}()
	}
}

// sendRequest dials peer p, writes req, reads the response frame back,
// and folds it into replica state via HandleResponse. It returns the
// immediate-retry signal HandleResponse produced, or a CategoryTransport
// RaftError if the round trip itself failed (a dead or unreachable peer
// is the ordinary case, not a bug — sendRequest logs it at debug before
// returning, and the driver tries again next pass).
func (r *Replica) sendRequest(ctx context.Context, p int, req protocol.Request) (bool, error) {
	addr := r.cfg.PeerAddrs[p]
	peer := strconv.Itoa(p)

	dialer := net.Dialer{Timeout: r.cfg.ConnTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		dialErr := errors.Dial(addr, err)
		r.log.Debug("dial failed", "peer", peer, "addr", addr, "error", dialErr.Error())
		return false, dialErr
	}
	defer conn.Close()

	deadline := time.Now().Add(r.cfg.ConnTimeout)
	_ = conn.SetDeadline(deadline)

	var frame [protocol.FrameSize]byte
	if req.AppendEntries != nil {
		frame = protocol.EncodeAppendEntriesRequest(*req.AppendEntries)
	} else {
		frame = protocol.EncodeRequestVoteRequest(*req.RequestVote)
	}
	if err := protocol.WriteFrame(conn, frame); err != nil {
		var writeErr *errors.RaftError
		if stderrors.Is(err, protocol.ErrShortFrame) {
			writeErr = errors.ShortFrame(addr)
		} else {
			writeErr = errors.WriteTimeout(addr, err)
		}
		r.log.Debug("write frame failed", "peer", peer, "addr", addr, "error", writeErr.Error())
		return false, writeErr
	}

	respFrame, err := protocol.ReadFrame(conn)
	if err != nil {
		readErr := errors.ReadTimeout(addr, err)
		r.log.Debug("read frame failed", "peer", peer, "addr", addr, "error", readErr.Error())
		return false, readErr
	}
	res := protocol.DecodeResponse(respFrame)
	return r.HandleResponse(res), nil
}

// Propose injects one (term, value) entry directly into this replica's
// own log via the local-propose loopback path: the same id sentinel a
// remote client would use over the wire, applied in-process instead of
// over a TCP round trip.
func (r *Replica) Propose(value uint32) bool {
	r.mu.Lock()
	term := r.term
	r.mu.Unlock()

	req := protocol.AppendEntriesRequest{
		ID:         protocol.LocalProposeID,
		Term:       term,
		HasEntry:   true,
		EntryTerm:  term,
		EntryValue: value,
	}
	resp := r.HandleRequest(protocol.Request{AppendEntries: &req})
	return resp.AppendEntries.Success
}
