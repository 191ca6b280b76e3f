package datasets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LogFileRelPath is where a session folder keeps its matched frame/control log.
const LogFileRelPath = "sensor_data/matched_frame_ctrl_cmd_processed.txt"

// Session is one recording run found under a dataset directory.
type Session struct {
	Dataset string
	Name    string
	LogPath string
}

// ListSessions returns the sessions NewLabelLoader will read, in the order it
// reads them: datasets in the given order, sessions sorted by folder name.
// Entries starting with "." are skipped. It does not check that LogPath exists.
func ListSessions(dataDir string, datasetNames []string) ([]Session, error) {
	var sessions []Session
	for _, ds := range datasetNames {
		dir := filepath.Join(dataDir, ds)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list dataset %s", dir)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			sessions = append(sessions, Session{
				Dataset: ds,
				Name:    e.Name(),
				LogPath: filepath.Join(dir, e.Name(), filepath.FromSlash(LogFileRelPath)),
			})
		}
	}
	return sessions, nil
}
