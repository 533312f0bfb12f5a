// Package cluster describes the worker topology batch sharding runs on.
package cluster

import (
	"fmt"
	"runtime"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Device identifies one worker device.
type Device struct {
	Kind  tensor.Device
	Index int
}

// String renders the device as "/device:CPU:0".
func (d Device) String() string {
	return fmt.Sprintf("/device:%s:%d", d.Kind, d.Index)
}

// Cluster reports how many workers a batch is split across and which
// device serves each shard.
type Cluster interface {
	WorkerCount() int
	DeviceForShard(i int) Device
}

// Local is a single-host cluster of identical devices.
type Local struct {
	Kind    tensor.Device
	Workers int
}

// NewLocal creates a Local cluster with n workers of the given kind.
// Non-positive n means one worker per CPU.
func NewLocal(kind tensor.Device, n int) *Local {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Local{Kind: kind, Workers: n}
}

// WorkerCount implements Cluster.
func (l *Local) WorkerCount() int {
	return l.Workers
}

// DeviceForShard implements Cluster. Shards map onto devices round-robin.
func (l *Local) DeviceForShard(i int) Device {
	return Device{Kind: l.Kind, Index: i % max(l.Workers, 1)}
}
