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
raftd runs one replica of a fixed-size Raft cluster.

Usage:

	raftd <replica-id>

replica-id is this process's position in the cluster, 0 through N-1. It
selects both the TCP port this replica listens on and its slot in every
peer's address table.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"raftd/internal/cluster"
	"raftd/internal/config"
	"raftd/internal/errors"
	"raftd/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "raftd:", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 2 {
		return errors.BadReplicaID(strings.Join(os.Args[1:], " "), config.ClusterSize)
	}

	id, err := strconv.Atoi(os.Args[1])
	if err != nil {
		return errors.BadReplicaID(os.Args[1], config.ClusterSize)
	}

	cfg := config.DefaultConfig(id)
	if err := cfg.Validate(); err != nil {
		return errors.BadReplicaID(os.Args[1], config.ClusterSize).WithCause(err)
	}

	log := logging.NewLogger("raft").With("id", os.Args[1])

	replica := cluster.NewReplica(cfg, log)

	ln, err := replica.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go replica.Serve(ctx, ln)
	go replica.RunSnapshotLogger(ctx)

	log.Info("replica started", "listen_addr", cfg.ListenAddr)
	replica.Run(ctx)
	log.Info("replica stopped")
	return nil
}
