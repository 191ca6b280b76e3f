package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"

	"github.com/Noofbiz/openbot/config"
	"github.com/Noofbiz/openbot/datasets"
)

func writeLog(t *testing.T, dataDir, dataset, session string, rows ...string) {
	t.Helper()
	dir := filepath.Join(dataDir, dataset, session, "sensor_data")
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "timestamp[ns],frame_path,left,right,cmd\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "matched_frame_ctrl_cmd_processed.txt"), []byte(content), 0644))
}

func testConfig(dataDir string) config.Config {
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.Datasets = []string{"train_data"}
	cfg.Progress = false
	return cfg
}

func TestRunQueries(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "train_data", "run1",
		"1,run1\\images\\1.jpeg,255,0,1",
		"2,run1\\images\\2.jpeg,0,255,-1",
	)

	cfg := testConfig(dir)
	cfg.Queries = []string{"run1/images/1.jpeg", "run1/images/404.jpeg", "run1/images/2.jpeg"}

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "run1/images/1.jpeg\tcmd=1\tthrottle=1.0000\tsteering=0.0000", lines[0])
	assert.Equal(t, "run1/images/404.jpeg\tunknown frame", lines[1])
	assert.Equal(t, "run1/images/2.jpeg\tcmd=-1\tthrottle=0.0000\tsteering=1.0000", lines[2])
}

func TestRunWritesPlots(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "train_data", "run1",
		"1 a 10 20 0",
		"2 b 30 40 1",
		"3 c 50 60 2",
	)

	cfg := testConfig(dir)
	cfg.PlotDir = filepath.Join(t.TempDir(), "plots")
	require.NoError(t, run(cfg, &bytes.Buffer{}))

	for _, name := range []string{scatterFile, histFile} {
		info, err := os.Stat(filepath.Join(cfg.PlotDir, name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.Datasets = nil
	assert.Error(t, run(cfg, &bytes.Buffer{}), "invalid config")

	cfg = testConfig(dir)
	assert.Error(t, run(cfg, &bytes.Buffer{}), "missing dataset")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "train_data", "no_log"), 0755))
	assert.Error(t, run(testConfig(dir), &bytes.Buffer{}), "missing session log")
}

func TestAutoRange(t *testing.T) {
	xmin, xmax, ymin, ymax := autoRange(nil)
	assert.Equal(t, []float64{-1, 1, -1, 1}, []float64{xmin, xmax, ymin, ymax})

	xmin, xmax, ymin, ymax = autoRange(plotter.XYs{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}})
	assert.InDelta(t, -0.06, xmin, 1e-9)
	assert.InDelta(t, 1.06, xmax, 1e-9)
	assert.InDelta(t, 0.4, ymin, 1e-9)
	assert.InDelta(t, 0.6, ymax, 1e-9)
}

// memSource is an in-memory LabelSource; labels are already normalized.
type memSource struct {
	keys   []string
	cmds   map[string]float32
	labels map[string][2]float32
	broken map[string]bool
}

func (m *memSource) Len() int       { return len(m.keys) }
func (m *memSource) Keys() []string { return m.keys }

func (m *memSource) Index(key string) int {
	for i, k := range m.keys {
		if k == key {
			return i
		}
	}
	return datasets.UnknownIndex
}

func (m *memSource) GetLabel(key string) (float32, [2]float32, error) {
	if m.broken[key] {
		return 0, [2]float32{}, errors.New("corrupt entry")
	}
	if m.Index(key) == datasets.UnknownIndex {
		return 0, [2]float32{}, errors.Wrap(datasets.ErrUnknownFrame, key)
	}
	return m.cmds[key], m.labels[key], nil
}

func (m *memSource) Lookup(keys []string) (*datasets.LabelBatch, error) {
	b := &datasets.LabelBatch{BatchSize: len(keys)}
	for _, key := range keys {
		cmd, label, err := m.GetLabel(key)
		if err != nil {
			return nil, err
		}
		b.Cmds = append(b.Cmds, cmd)
		b.Labels = append(b.Labels, label[0], label[1])
	}
	return b, nil
}

func (m *memSource) CmdValues() *tensors.Tensor   { return nil }
func (m *memSource) LabelValues() *tensors.Tensor { return nil }

func newMemSource() *memSource {
	return &memSource{
		keys:   []string{"x", "y"},
		cmds:   map[string]float32{"x": 2, "y": -1},
		labels: map[string][2]float32{"x": {0.25, 0.5}, "y": {1, 0}},
		broken: map[string]bool{},
	}
}

func TestPrintQueriesFromSource(t *testing.T) {
	src := newMemSource()

	var out bytes.Buffer
	require.NoError(t, printQueries(&out, src, []string{"y", "z"}))
	assert.Equal(t, "y\tcmd=-1\tthrottle=1.0000\tsteering=0.0000\nz\tunknown frame\n", out.String())

	src.keys = append(src.keys, "bad")
	src.broken["bad"] = true
	assert.Error(t, printQueries(&bytes.Buffer{}, src, []string{"bad"}))
}

func TestPlotLabelsFromSource(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "plots")
	require.NoError(t, plotLabels(outDir, newMemSource()))
	for _, name := range []string{scatterFile, histFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	assert.Error(t, plotLabels(outDir, &memSource{}), "empty source")
}
