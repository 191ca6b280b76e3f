package datasets

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// LabelBatch stores the labels of a list of frames in flat contiguous buffers.
// Labels holds (throttle, steering) pairs, already divided by the label scale.
type LabelBatch struct {
	Cmds      []float32
	Labels    []float32
	BatchSize int
}

// ToGomlxTensors converts the batch to a [B] command tensor and a [B, 2]
// label tensor.
func (b *LabelBatch) ToGomlxTensors() (cmd *tensors.Tensor, label *tensors.Tensor, err error) {
	if len(b.Cmds) != b.BatchSize || len(b.Labels) != 2*b.BatchSize {
		return nil, nil, errors.Errorf("inconsistent batch: size %d, %d commands, %d label values",
			b.BatchSize, len(b.Cmds), len(b.Labels))
	}
	cmd = tensors.FromFlatDataAndDimensions(b.Cmds, b.BatchSize)
	label = tensors.FromFlatDataAndDimensions(b.Labels, b.BatchSize, 2)
	return cmd, label, nil
}

// Label returns the i-th (throttle, steering) pair.
func (b *LabelBatch) Label(i int) [2]float32 {
	return [2]float32{b.Labels[2*i], b.Labels[2*i+1]}
}
