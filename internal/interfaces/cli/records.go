package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/pkg/errors"
)

// maxRecordLine bounds a single input line; raw identity records are small,
// so anything beyond this is a malformed file, not a legitimate record.
const maxRecordLine = 1 << 20

// LoadRecords reads raw identity records from path.  Two layouts are
// accepted: a JSON array of records, or JSON Lines with one record per line.
// Blank lines are ignored; a line that fails to parse fails the whole load,
// because a partially read batch would silently resolve against incomplete
// data.
func LoadRecords(path string) ([]record.RawIdentityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, fmt.Sprintf("failed to read input file %q", path))
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []record.RawIdentityRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.Wrap(err, errors.CodeMalformedInput, "failed to parse record array")
		}
		return records, nil
	}

	var records []record.RawIdentityRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLine)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record.RawIdentityRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, errors.Wrap(err, errors.CodeMalformedInput, fmt.Sprintf("failed to parse record on line %d", line))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedInput, "failed to scan input file")
	}
	return records, nil
}
