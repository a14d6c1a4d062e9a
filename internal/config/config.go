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
Package config holds the fixed cluster constants and the per-process
values derived from the single CLI argument a replica takes.

There is no configuration file or environment variable surface: the only
external input is the replica id, validated against the fixed cluster
size N.
*/
package config

import (
	"fmt"
	"time"
)

const (
	// ClusterSize is the fixed number of replicas, N.
	ClusterSize = 5

	// BaseAddr is the loopback address every replica binds on.
	BaseAddr = "127.0.0.1"

	// BasePort is the base port; replica i listens on BasePort+i.
	BasePort = 7890

	// ConnTimeout is the per-connection read/write/dial timeout.
	ConnTimeout = 1 * time.Second

	// HeartbeatInterval is H, the base heartbeat interval.
	HeartbeatInterval = 1 * time.Second
)

// Config holds one replica process's resolved configuration.
type Config struct {
	ID                int
	ClusterSize       int
	BasePort          int
	ListenAddr        string
	PeerAddrs         []string // indexed by replica id, PeerAddrs[ID] == own address
	ConnTimeout       time.Duration
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the Config for replica id in the standard N=5,
// base-port-7890 cluster.
func DefaultConfig(id int) Config {
	return NewConfig(id, ClusterSize, BasePort)
}

// NewConfig builds a Config for replica id in a cluster of the given size
// and base port. Exposed distinctly from DefaultConfig so tests can shrink
// N without touching the fixed production constants.
func NewConfig(id, clusterSize, basePort int) Config {
	peers := make([]string, clusterSize)
	for i := 0; i < clusterSize; i++ {
		peers[i] = Addr(basePort, i)
	}
	listenAddr := ""
	if id >= 0 && id < clusterSize {
		listenAddr = peers[id]
	}
	return Config{
		ID:                id,
		ClusterSize:       clusterSize,
		BasePort:          basePort,
		ListenAddr:        listenAddr,
		PeerAddrs:         peers,
		ConnTimeout:       ConnTimeout,
		HeartbeatInterval: HeartbeatInterval,
	}
}

// Addr returns the loopback address replica id listens on for the given
// base port.
func Addr(basePort, id int) string {
	return fmt.Sprintf("%s:%d", BaseAddr, basePort+id)
}

// Validate rejects a replica id outside [0, ClusterSize).
func (c Config) Validate() error {
	if c.ClusterSize <= 0 {
		return fmt.Errorf("config: cluster size must be positive, got %d", c.ClusterSize)
	}
	if c.ID < 0 || c.ID >= c.ClusterSize {
		return fmt.Errorf("config: replica id %d out of range [0, %d)", c.ID, c.ClusterSize)
	}
	if len(c.PeerAddrs) != c.ClusterSize {
		return fmt.Errorf("config: expected %d peer addresses, got %d", c.ClusterSize, len(c.PeerAddrs))
	}
	return nil
}
