package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// This package loads the driving-log labels recorded by the robot app and
// serves them to a training pipeline, keyed by frame path.
//
// Layout on disk:
//
//	<data_dir>/<dataset>/<session>/sensor_data/matched_frame_ctrl_cmd_processed.txt
//
// LabelLoader
//   - Scans every non-hidden session folder of every dataset once, at
//     construction. There is no lazy loading: the whole table is kept in
//     memory for the lifetime of the training run.
//   - Each data line is "<seq> <frame_key> <throttle> <steering> <command> ...".
//   - Keys seen twice keep the label from the last file read.
//   - Lookups return the command unchanged and (throttle, steering) divided
//     by the label scale (255 by default) so they land in [0, 1].
//
// Notes on gomlx tensors:
//   - The command and (throttle, steering) columns are also held as gomlx
//     tensors of shape [N] and [N, 2], in index order, so the values can be
//     fed into a graph by position. Lookup builds [B] / [B, 2] tensors for a
//     list of keys.

// LabelSource is what a training pipeline needs from a label loader.
// LabelLoader implements it.
type LabelSource interface {
	Len() int
	Keys() []string
	Index(key string) int
	GetLabel(key string) (cmd float32, label [2]float32, err error)
	Lookup(keys []string) (*LabelBatch, error)

	CmdValues() *tensors.Tensor
	LabelValues() *tensors.Tensor
}

var _ LabelSource = (*LabelLoader)(nil)
