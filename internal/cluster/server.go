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
	"time"

	"raftd/internal/errors"
	"raftd/internal/protocol"
)

// Listen binds the replica's configured address and returns the
// listener, or a Startup RaftError if the bind fails.
func (r *Replica) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", r.cfg.ListenAddr)
	if err != nil {
		return nil, errors.BindFailed(r.cfg.ListenAddr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until ctx is cancelled or the
// listener is closed, handling each on its own goroutine.
func (r *Replica) Serve(ctx context.Context, ln net.Listener) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go r.handleConn(conn)
	}
}

// handleConn reads exactly one 32-byte request frame, dispatches it,
// and writes exactly one 32-byte response frame back, then closes the
// connection — one request per connection.
func (r *Replica) handleConn(conn net.Conn) {
	defer conn.Close()

	deadline := time.Now().Add(r.cfg.ConnTimeout)
	_ = conn.SetDeadline(deadline)

	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		r.log.Debug("read frame failed", "error", err.Error())
		return
	}

	req := protocol.DecodeRequest(frame)
	resp := r.HandleRequest(req)

	var respFrame [protocol.FrameSize]byte
	if resp.AppendEntries != nil {
		respFrame = protocol.EncodeAppendEntriesResponse(*resp.AppendEntries)
	} else {
		respFrame = protocol.EncodeRequestVoteResponse(*resp.RequestVote)
	}

	if err := protocol.WriteFrame(conn, respFrame); err != nil {
		r.log.Debug("write frame failed", "error", err.Error())
	}
}
