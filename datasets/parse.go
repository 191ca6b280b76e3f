package datasets

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// labelRecord is one parsed data line: the frame key and its raw label tokens
// (throttle, steering, command, then anything else the line carried).
type labelRecord struct {
	key    string
	values []string
}

// lineReplacer turns commas and tabs into field separators, normalizes Windows
// path separators and drops carriage returns.
var lineReplacer = strings.NewReplacer(
	",", " ",
	"\\", "/",
	"\r", "",
	"\t", " ",
)

// parseLabelLog reads one matched_frame_ctrl_cmd_processed.txt stream. The
// first line is a header and is always discarded. It returns the records in
// file order and the number of non-comment lines dropped for having fewer
// than two fields.
func parseLabelLog(r io.Reader) (records []labelRecord, skipped int, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to read label log")
	}

	// Skip header
	text := string(raw)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		return nil, 0, nil
	}

	for _, line := range strings.Split(lineReplacer.Replace(text), "\n") {
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := splitFields(line)
		if len(fields) < 2 {
			skipped++
			continue
		}
		records = append(records, labelRecord{key: fields[1], values: fields[2:]})
	}
	return records, skipped, nil
}

// splitFields splits a normalized line on single spaces, trims each token and
// drops the empty ones. Other whitespace inside a token, such as a no-break
// space in a frame path, stays part of it.
func splitFields(line string) []string {
	var fields []string
	for _, tok := range strings.Split(line, " ") {
		if tok = strings.TrimSpace(tok); tok != "" {
			fields = append(fields, tok)
		}
	}
	return fields
}
