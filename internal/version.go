package internal

import (
	"fmt"
	"strings"
)

// FormatVersion is the module table revision (1 through 4). DynamoRIO never
// documented the log format and has reshuffled the module table columns
// several times; the table version is what actually drives field layout.
type FormatVersion int

const (
	TableV1 FormatVersion = 1
	TableV2 FormatVersion = 2
	TableV3 FormatVersion = 3
	TableV4 FormatVersion = 4
)

func (v FormatVersion) Supported() bool {
	return v >= TableV1 && v <= TableV4
}

func (v FormatVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}

type FieldKind int

const (
	FieldID FieldKind = iota
	FieldContainingID
	FieldBase
	FieldEnd
	FieldEntry
	FieldOffset
	FieldChecksum
	FieldTimestamp
	FieldSize
	FieldPath
)

type Field struct {
	Kind FieldKind
	Name string
	Hex  bool
}

// Schema is the ordered column layout of one module table record. The path
// column is always last and is taken greedily, since paths may contain the
// field delimiter.
type Schema []Field

func (s Schema) Has(kind FieldKind) bool {
	for _, f := range s {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

var fieldsByName = map[string]Field{
	"id":            {Kind: FieldID, Name: "id"},
	"containing_id": {Kind: FieldContainingID, Name: "containing_id"},
	"containing id": {Kind: FieldContainingID, Name: "containing_id"},
	"base":          {Kind: FieldBase, Name: "base", Hex: true},
	"start":         {Kind: FieldBase, Name: "start", Hex: true},
	"end":           {Kind: FieldEnd, Name: "end", Hex: true},
	"entry":         {Kind: FieldEntry, Name: "entry", Hex: true},
	"offset":        {Kind: FieldOffset, Name: "offset", Hex: true},
	"checksum":      {Kind: FieldChecksum, Name: "checksum", Hex: true},
	"timestamp":     {Kind: FieldTimestamp, Name: "timestamp", Hex: true},
	"size":          {Kind: FieldSize, Name: "size"},
	"path":          {Kind: FieldPath, Name: "path"},
}

// ParseSchema resolves an explicit "Columns:" header line into a Schema.
func ParseSchema(columns string) (Schema, error) {
	names := strings.Split(columns, ", ")
	schema := make(Schema, 0, len(names))
	for _, name := range names {
		f, ok := fieldsByName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		schema = append(schema, f)
	}
	if len(schema) == 0 || schema[len(schema)-1].Kind != FieldPath {
		return nil, fmt.Errorf("schema does not end with a path column")
	}
	return schema, nil
}

func mustSchema(names ...string) Schema {
	s := make(Schema, 0, len(names))
	for _, name := range names {
		f, ok := fieldsByName[name]
		if !ok {
			panic("bad builtin schema field: " + name)
		}
		s = append(s, f)
	}
	return s
}

// Built-in layouts for files whose header carries no usable Columns line.
// Windows logs append checksum and timestamp columns that Mac/Linux logs
// omit, so v2 onward has a long and a short variant; the module table
// parser picks by field count.
var (
	schemaV1      = mustSchema("id", "size", "path")
	schemaV2Long  = mustSchema("id", "base", "end", "entry", "checksum", "timestamp", "path")
	schemaV2Short = mustSchema("id", "base", "end", "entry", "path")
	schemaV3Long  = mustSchema("id", "containing_id", "base", "end", "entry", "checksum", "timestamp", "path")
	schemaV3Short = mustSchema("id", "containing_id", "base", "end", "entry", "path")
	schemaV4Long  = mustSchema("id", "containing_id", "base", "end", "entry", "offset", "checksum", "timestamp", "path")
	schemaV4Short = mustSchema("id", "containing_id", "base", "end", "entry", "offset", "path")
)

// BuiltinSchemas returns the long (Windows) and short (Mac/Linux) column
// layouts for a table version. For v1 both are the same three-column form.
func (v FormatVersion) BuiltinSchemas() (long, short Schema) {
	switch v {
	case TableV1:
		return schemaV1, schemaV1
	case TableV2:
		return schemaV2Long, schemaV2Short
	case TableV3:
		return schemaV3Long, schemaV3Short
	case TableV4:
		return schemaV4Long, schemaV4Short
	}
	return nil, nil
}
