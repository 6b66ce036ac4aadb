package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// Module is one instrumented binary or shared library from the module
// table. Fields a table revision does not report stay nil; "not reported"
// and "reported as zero" are different things when diffing address layouts.
type Module struct {
	ID           int
	ContainingID *int
	Base         *uint64
	End          *uint64
	Entry        *uint64
	Offset       *uint64
	Checksum     *uint64
	Timestamp    *uint64
	Size         *uint64
	Path         string
	Filename     string
}

// StartAddress returns the load base, or zero for table revisions that do
// not report one (v1).
func (m *Module) StartAddress() uint64 {
	if m.Base == nil {
		return 0
	}
	return *m.Base
}

// ParseModules consumes count module records from the cursor, one text line
// each, laid out per the header's schema. IDs come from the id column when
// the schema has one (validated unique) and are assigned sequentially
// otherwise.
func ParseModules(cur *Cursor, h *Header) ([]*Module, error) {
	modules := make([]*Module, 0, h.ModuleCount)
	seen := make(map[int]bool, h.ModuleCount)

	for i := 0; i < h.ModuleCount; i++ {
		lineNo := cur.Line()
		text, ok := cur.ReadLine()
		if !ok {
			return nil, &ModuleParseError{
				Index: i, Line: lineNo, Field: "record",
				Err: fmt.Errorf("module table ends after %d of %d records", i, h.ModuleCount),
			}
		}

		mod, err := parseModuleLine(text, i, lineNo, h)
		if err != nil {
			return nil, err
		}

		if seen[mod.ID] {
			return nil, &DuplicateModuleIdError{Line: lineNo, Index: i, ID: mod.ID}
		}
		seen[mod.ID] = true
		modules = append(modules, mod)
	}
	return modules, nil
}

func parseModuleLine(text string, index, lineNo int, h *Header) (*Module, error) {
	schema := h.Schema
	if !h.ExplicitSchema {
		schema = pickBuiltin(text, h.TableVersion)
	}

	// The path column is last and taken greedily, so the line splits into
	// at most len(schema) fields no matter what the path contains.
	fields := strings.SplitN(text, ", ", len(schema))
	if len(fields) < len(schema) {
		return nil, &ModuleParseError{
			Index: index, Line: lineNo, Field: schema[len(fields)].Name,
			Err: fmt.Errorf("record has %d fields, schema needs %d", len(fields), len(schema)),
		}
	}

	mod := &Module{ID: index}
	for col, f := range schema {
		raw := strings.TrimSpace(fields[col])

		if f.Kind == FieldPath {
			mod.Path = raw
			mod.Filename = pathFilename(raw)
			continue
		}

		value, err := parseFieldValue(raw, f)
		if err != nil {
			return nil, &ModuleParseError{Index: index, Line: lineNo, Field: f.Name, Err: err}
		}

		switch f.Kind {
		case FieldID:
			mod.ID = int(value)
		case FieldContainingID:
			v := int(value)
			mod.ContainingID = &v
		case FieldBase:
			mod.Base = &value
		case FieldEnd:
			mod.End = &value
		case FieldEntry:
			mod.Entry = &value
		case FieldOffset:
			mod.Offset = &value
		case FieldChecksum:
			mod.Checksum = &value
		case FieldTimestamp:
			mod.Timestamp = &value
		case FieldSize:
			mod.Size = &value
		}
	}

	if mod.Base != nil && mod.End != nil {
		if *mod.End <= *mod.Base {
			return nil, &ModuleParseError{
				Index: index, Line: lineNo, Field: "end",
				Err: fmt.Errorf("end 0x%x is not above base 0x%x", *mod.End, *mod.Base),
			}
		}
		if mod.Size == nil {
			size := *mod.End - *mod.Base
			mod.Size = &size
		}
	}
	return mod, nil
}

// pathFilename is the final path component with surrounding quotes
// stripped. Logs are parsed on any host, so both separator styles split.
func pathFilename(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return strings.Trim(path, `'"`)
}

// pickBuiltin chooses between the long (Windows) and short (Mac/Linux)
// built-in layouts by counting delimiters in the record.
func pickBuiltin(text string, v FormatVersion) Schema {
	long, short := v.BuiltinSchemas()
	if strings.Count(text, ", ") >= len(long)-1 {
		return long
	}
	return short
}

func parseFieldValue(raw string, f Field) (uint64, error) {
	if f.Hex {
		return strconv.ParseUint(strings.TrimPrefix(raw, "0x"), 16, 64)
	}
	return strconv.ParseUint(raw, 10, 64)
}
