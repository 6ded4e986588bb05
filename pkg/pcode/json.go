package pcode

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DiagnosticsJSON builds the `--diagnostics-json` export document: an
// array of {message, note, line, column, severity} objects, one per
// Error, written incrementally via sjson.SetBytes rather than a single
// json.Marshal call — the set of fields an Error exposes may grow, and
// incremental sets let a future field be added without touching every
// existing write site (SPEC_FULL.md §3).
func DiagnosticsJSON(errs []*Error) ([]byte, error) {
	doc := []byte(`{"diagnostics":[]}`)
	var err error
	for i, e := range errs {
		base := pathFor(i)
		if doc, err = sjson.SetBytes(doc, base+".message", e.Message); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".note", e.Note); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".line", e.Line); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".column", e.Column); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".severity", e.Severity.String()); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func pathFor(i int) string {
	return "diagnostics." + strconv.Itoa(i)
}

// ErrorCount queries a diagnostics JSON document (as built by
// DiagnosticsJSON) for the number of entries whose severity is "error",
// without re-parsing the whole document into Go structs.
func ErrorCount(doc []byte) int {
	count := 0
	gjson.GetBytes(doc, "diagnostics.#(severity==\"error\")#").ForEach(func(_, _ gjson.Result) bool {
		count++
		return true
	})
	return count
}
