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
	"os"
	"strconv"
	"time"
)

// snapshotInterval is how often RunSnapshotLogger emits a state line.
const snapshotInterval = time.Second

// RunSnapshotLogger periodically emits the replica's observable state —
// epoch time, process id, replica id, term, commit index, log length,
// and role — as a single structured log line.
func (r *Replica) RunSnapshotLogger(ctx context.Context) {
	pid := strconv.Itoa(os.Getpid())

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logSnapshot(pid)
		}
	}
}

func (r *Replica) logSnapshot(pid string) {
	r.mu.Lock()
	term := r.term
	commitIndex := r.commitIndex
	logLen := len(r.entries)
	role := r.role
	r.mu.Unlock()

	r.log.Info("snapshot",
		"epoch", strconv.FormatInt(time.Now().Unix(), 10),
		"pid", pid,
		"id", strconv.Itoa(r.id),
		"term", strconv.FormatUint(uint64(term), 10),
		"commit_index", strconv.Itoa(commitIndex),
		"log_len", strconv.Itoa(logLen),
		"role", role.roleName(),
	)
}
