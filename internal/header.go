package internal

import (
	"strconv"
	"strings"
)

// Header is everything the leading text block declares: the file version,
// the instrumentation flavor, and the module table's revision, record count
// and column layout. After ParseHeader returns, the cursor sits on the
// first module record.
type Header struct {
	Version      int // drcov file version, always 2 in the wild
	Flavor       string
	TableVersion FormatVersion
	ModuleCount  int
	Schema       Schema
	// ExplicitSchema is set when the layout came from a Columns line
	// rather than the built-in per-version constants.
	ExplicitSchema bool
}

const supportedFileVersion = 2

// ParseHeader consumes the drcov text header:
//
//	DRCOV VERSION: 2
//	DRCOV FLAVOR: drcov
//	Module Table: version 2, count 11
//	Columns: id, base, end, entry, checksum, timestamp, path
//
// Older v1 logs collapse the third line to "Module Table: <count>" and have
// no Columns line.
func ParseHeader(cur *Cursor) (*Header, error) {
	h := &Header{}

	// DRCOV VERSION: N
	line := cur.Line()
	value, err := expectPrefixed(cur, "DRCOV VERSION:")
	if err != nil {
		return nil, err
	}
	h.Version, err = strconv.Atoi(value)
	if err != nil {
		return nil, &HeaderParseError{Line: line, Expected: "DRCOV VERSION: <number>", Got: value}
	}
	if h.Version != supportedFileVersion {
		return nil, &UnsupportedVersionError{Line: line, What: "file", Version: h.Version}
	}

	// DRCOV FLAVOR: name
	h.Flavor, err = expectPrefixed(cur, "DRCOV FLAVOR:")
	if err != nil {
		return nil, err
	}

	// Module Table: version N, count M  (v2+)
	// Module Table: M                   (v1)
	line = cur.Line()
	value, err = expectPrefixed(cur, "Module Table:")
	if err != nil {
		return nil, err
	}
	if err := h.parseTableDecl(line, value); err != nil {
		return nil, err
	}

	if h.TableVersion == TableV1 {
		h.Schema, _ = TableV1.BuiltinSchemas()
		return h, nil
	}

	// Columns: id, base, end, ...
	// Present in practice for v2+, but some producers skip it, so sniff
	// instead of demanding it.
	if string(cur.PeekBytes(len("Columns:"))) != "Columns:" {
		h.Schema, _ = h.TableVersion.BuiltinSchemas()
		return h, nil
	}
	value, err = expectPrefixed(cur, "Columns:")
	if err != nil {
		return nil, err
	}
	schema, err := ParseSchema(value)
	if err != nil {
		// An unrecognized column set is not fatal: fall back to the
		// built-in layout for this table version, exactly like parsers
		// that ignore the Columns line altogether.
		h.Schema, _ = h.TableVersion.BuiltinSchemas()
		return h, nil
	}
	h.Schema = schema
	h.ExplicitSchema = true
	return h, nil
}

func (h *Header) parseTableDecl(line int, value string) error {
	versionPart, countPart, found := strings.Cut(value, ", ")
	if !found {
		// v1 form: the whole value is the module count.
		count, err := strconv.Atoi(value)
		if err != nil {
			return &HeaderParseError{Line: line, Expected: "Module Table: version <n>, count <m>", Got: value}
		}
		h.TableVersion = TableV1
		h.ModuleCount = count
		return nil
	}

	v, ok := cutKeyed(versionPart, "version")
	if !ok {
		return &HeaderParseError{Line: line, Expected: "version <n>", Got: versionPart}
	}
	tv, err := strconv.Atoi(v)
	if err != nil {
		return &HeaderParseError{Line: line, Expected: "version <n>", Got: versionPart}
	}
	h.TableVersion = FormatVersion(tv)
	if !h.TableVersion.Supported() {
		return &UnsupportedVersionError{Line: line, What: "module table", Version: tv}
	}

	c, ok := cutKeyed(countPart, "count")
	if !ok {
		return &HeaderParseError{Line: line, Expected: "count <m>", Got: countPart}
	}
	h.ModuleCount, err = strconv.Atoi(c)
	if err != nil || h.ModuleCount < 0 {
		return &HeaderParseError{Line: line, Expected: "count <m>", Got: countPart}
	}
	return nil
}

// expectPrefixed reads one line and returns its value after the given
// prefix, trimmed.
func expectPrefixed(cur *Cursor, prefix string) (string, error) {
	line := cur.Line()
	text, ok := cur.ReadLine()
	if !ok {
		return "", &HeaderParseError{Line: line, Expected: prefix + " ...", Got: "<end of file>"}
	}
	if !strings.HasPrefix(text, prefix) {
		return "", &HeaderParseError{Line: line, Expected: prefix + " ...", Got: text}
	}
	return strings.TrimSpace(strings.TrimPrefix(text, prefix)), nil
}

// cutKeyed splits "version 2" style tokens, returning the value after the
// key word.
func cutKeyed(s, key string) (string, bool) {
	k, v, found := strings.Cut(strings.TrimSpace(s), " ")
	if !found || k != key {
		return "", false
	}
	return strings.TrimSpace(v), true
}
