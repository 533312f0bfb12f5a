package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestLocal(t *testing.T) {
	c := NewLocal(tensor.CPU, 2)
	assert.Equal(t, 2, c.WorkerCount())
	assert.Equal(t, "/device:CPU:1", c.DeviceForShard(1).String())
	assert.Equal(t, Device{Kind: tensor.CPU, Index: 0}, c.DeviceForShard(2))
}

func TestLocalDefaultsToCPUCount(t *testing.T) {
	c := NewLocal(tensor.CPU, 0)
	assert.Positive(t, c.WorkerCount())
}
