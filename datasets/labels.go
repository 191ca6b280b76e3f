package datasets

import (
	"os"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// UnknownIndex is what Index returns for a frame key that was never loaded.
	UnknownIndex = -1

	// DefaultLabelScale maps the recorded 0-255 throttle/steering range into [0, 1].
	DefaultLabelScale float32 = 255
)

var (
	// ErrUnknownFrame is returned by GetLabel and Lookup for keys missing from the table.
	ErrUnknownFrame = errors.New("unknown frame")

	// ErrShortLabel is returned when a frame's label has fewer than three values.
	ErrShortLabel = errors.New("label needs throttle, steering and command")

	// ErrInvalidScale is returned for a label scale that is not positive.
	ErrInvalidScale = errors.New("label scale must be positive")
)

// SessionStats describes one parsed session log. It is passed to the hook
// installed with WithSessionHook.
type SessionStats struct {
	Session Session
	Records int
	Skipped int
}

// LoaderOption configures NewLabelLoader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	scale       float32
	sessionHook func(SessionStats)
}

// WithLabelScale overrides the divisor applied to throttle and steering.
func WithLabelScale(scale float32) LoaderOption {
	return func(o *loaderOptions) { o.scale = scale }
}

// WithSessionHook registers fn to be called after each session log is parsed.
func WithSessionHook(fn func(SessionStats)) LoaderOption {
	return func(o *loaderOptions) { o.sessionHook = fn }
}

// LabelLoader holds the labels of every frame found under a set of datasets.
// It is built in one pass by NewLabelLoader and never changes afterwards, so
// its methods may be called from several goroutines.
type LabelLoader struct {
	dataDir  string
	datasets []string
	scale    float32

	// keys in index order; a duplicated key keeps its first position
	keys []string

	// frameIndex maps a frame key to its position in keys
	frameIndex map[string]int

	// cmds[i] and labels[2*i:2*i+2] belong to keys[i]
	cmds   []float32
	labels []float32

	cmdTensor   *tensors.Tensor
	labelTensor *tensors.Tensor

	// Totals over the scan, for reporting
	sessions int
	records  int
	skipped  int
}

// NewLabelLoader scans dataDir/<dataset>/<session> for every dataset and
// builds the label table, the frame index and the value arrays.
//
// A dataset directory or session log that cannot be read aborts the load.
// Lines with fewer than two fields are skipped. When a frame key appears more
// than once, the label read last wins.
func NewLabelLoader(dataDir string, datasetNames []string, opts ...LoaderOption) (*LabelLoader, error) {
	o := loaderOptions{scale: DefaultLabelScale}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.scale > 0) {
		return nil, errors.Wrapf(ErrInvalidScale, "got %v", o.scale)
	}

	sessions, err := ListSessions(dataDir, datasetNames)
	if err != nil {
		return nil, err
	}

	l := &LabelLoader{
		dataDir:  dataDir,
		datasets: append([]string(nil), datasetNames...),
		scale:    o.scale,
		sessions: len(sessions),
	}

	var corpus []labelRecord
	for _, s := range sessions {
		records, skipped, err := readSessionLog(s)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			klog.V(1).Infof("%s: skipped %d short lines", s.LogPath, skipped)
		}
		corpus = append(corpus, records...)
		l.records += len(records)
		l.skipped += skipped
		if o.sessionHook != nil {
			o.sessionHook(SessionStats{Session: s, Records: len(records), Skipped: skipped})
		}
	}

	if err := l.buildIndex(corpus); err != nil {
		return nil, err
	}
	klog.V(2).Infof("label index built: %d frames from %d records in %d sessions",
		len(l.keys), l.records, l.sessions)
	return l, nil
}

// readSessionLog opens and parses the log of one session.
func readSessionLog(s Session) ([]labelRecord, int, error) {
	file, err := os.Open(s.LogPath)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to open label log for session %s/%s", s.Dataset, s.Name)
	}
	defer file.Close()

	records, skipped, err := parseLabelLog(file)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to parse %s", s.LogPath)
	}
	return records, skipped, nil
}

// buildIndex merges the corpus into the label table and fills the frame
// index and value arrays, all in the same key order.
func (l *LabelLoader) buildIndex(corpus []labelRecord) error {
	table := make(map[string][]string, len(corpus))
	for _, r := range corpus {
		if _, ok := table[r.key]; !ok {
			l.keys = append(l.keys, r.key)
		}
		table[r.key] = r.values
	}

	l.frameIndex = make(map[string]int, len(l.keys))
	l.cmds = make([]float32, len(l.keys))
	l.labels = make([]float32, 2*len(l.keys))
	for i, key := range l.keys {
		values := table[key]
		if len(values) < 3 {
			return errors.Wrapf(ErrShortLabel, "frame %s has %d values", key, len(values))
		}
		throttle, err := parseFloat32(values[0])
		if err != nil {
			return errors.Wrapf(err, "frame %s: bad throttle", key)
		}
		steering, err := parseFloat32(values[1])
		if err != nil {
			return errors.Wrapf(err, "frame %s: bad steering", key)
		}
		cmd, err := parseFloat32(values[2])
		if err != nil {
			return errors.Wrapf(err, "frame %s: bad command", key)
		}
		l.frameIndex[key] = i
		l.cmds[i] = cmd
		l.labels[2*i] = throttle
		l.labels[2*i+1] = steering
	}

	if len(l.keys) > 0 {
		l.cmdTensor = tensors.FromFlatDataAndDimensions(l.cmds, len(l.keys))
		l.labelTensor = tensors.FromFlatDataAndDimensions(l.labels, len(l.keys), 2)
	}
	return nil
}

// Len returns the number of distinct frame keys.
func (l *LabelLoader) Len() int {
	return len(l.keys)
}

// Index returns the position of key in the value arrays, or UnknownIndex.
func (l *LabelLoader) Index(key string) int {
	if i, ok := l.frameIndex[key]; ok {
		return i
	}
	return UnknownIndex
}

// GetLabel returns the command of the frame and its (throttle, steering)
// pair divided by the label scale. Unknown keys fail with ErrUnknownFrame.
func (l *LabelLoader) GetLabel(key string) (cmd float32, label [2]float32, err error) {
	i := l.Index(key)
	if i == UnknownIndex {
		return 0, label, errors.Wrapf(ErrUnknownFrame, "%q", key)
	}
	label[0] = l.labels[2*i] / l.scale
	label[1] = l.labels[2*i+1] / l.scale
	return l.cmds[i], label, nil
}

// Lookup runs GetLabel for every key, in order, and packs the results into
// a LabelBatch. It fails on the first unknown key.
func (l *LabelLoader) Lookup(keys []string) (*LabelBatch, error) {
	b := &LabelBatch{
		Cmds:      make([]float32, len(keys)),
		Labels:    make([]float32, 2*len(keys)),
		BatchSize: len(keys),
	}
	for i, key := range keys {
		cmd, label, err := l.GetLabel(key)
		if err != nil {
			return nil, err
		}
		b.Cmds[i] = cmd
		b.Labels[2*i] = label[0]
		b.Labels[2*i+1] = label[1]
	}
	return b, nil
}

// Keys returns a copy of the frame keys in index order.
func (l *LabelLoader) Keys() []string {
	return append([]string(nil), l.keys...)
}

// CmdValues returns the raw command column as a [N] tensor, or nil when no
// frame was loaded. The tensor is shared; callers must not modify it.
func (l *LabelLoader) CmdValues() *tensors.Tensor {
	return l.cmdTensor
}

// LabelValues returns the raw (throttle, steering) columns as a [N, 2]
// tensor, not divided by the scale, or nil when no frame was loaded.
func (l *LabelLoader) LabelValues() *tensors.Tensor {
	return l.labelTensor
}

// DataDir returns the base directory the loader scanned.
func (l *LabelLoader) DataDir() string { return l.dataDir }

// Datasets returns the dataset names the loader scanned.
func (l *LabelLoader) Datasets() []string {
	return append([]string(nil), l.datasets...)
}

// Scale returns the divisor applied to throttle and steering.
func (l *LabelLoader) Scale() float32 { return l.scale }

// Stats reports how many sessions and data lines were read, and how many
// short lines were skipped.
func (l *LabelLoader) Stats() (sessions, records, skipped int) {
	return l.sessions, l.records, l.skipped
}
