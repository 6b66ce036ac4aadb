package internal

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bbRecord(offset uint32, size, modID uint16) []byte {
	rec := make([]byte, BlockRecordSize)
	binary.LittleEndian.PutUint32(rec[0:], offset)
	binary.LittleEndian.PutUint16(rec[4:], size)
	binary.LittleEndian.PutUint16(rec[6:], modID)
	return rec
}

// buildLog assembles a complete drcov log: standard two-line preamble, the
// given module table lines, and a binary BB table declaring declared blocks.
func buildLog(tableDecl string, columns string, moduleLines []string, declared int, records ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("DRCOV VERSION: 2\n")
	buf.WriteString("DRCOV FLAVOR: drcov\n")
	buf.WriteString(tableDecl + "\n")
	if columns != "" {
		buf.WriteString("Columns: " + columns + "\n")
	}
	for _, line := range moduleLines {
		buf.WriteString(line + "\n")
	}
	fmt.Fprintf(&buf, "BB Table: %d bbs\n", declared)
	for _, rec := range records {
		buf.Write(rec)
	}
	return buf.Bytes()
}

func TestParseMinimalEveryTableVersion(t *testing.T) {
	cases := []struct {
		name      string
		tableDecl string
		columns   string
		modLine   string
		wantBase  *uint64
	}{
		{
			name:      "v1",
			tableDecl: "Module Table: 1",
			modLine:   "0, 4096, /bin/tool",
		},
		{
			name:      "v2",
			tableDecl: "Module Table: version 2, count 1",
			columns:   "id, base, end, entry, path",
			modLine:   "0, 0x400000, 0x401000, 0x400100, /bin/tool",
			wantBase:  addr(0x400000),
		},
		{
			name:      "v3",
			tableDecl: "Module Table: version 3, count 1",
			columns:   "id, containing_id, start, end, entry, path",
			modLine:   "0, 0, 0x400000, 0x401000, 0x400100, /bin/tool",
			wantBase:  addr(0x400000),
		},
		{
			name:      "v4",
			tableDecl: "Module Table: version 4, count 1",
			columns:   "id, containing_id, start, end, entry, offset, path",
			modLine:   "0, 0, 0x400000, 0x401000, 0x400100, 0x1000, /bin/tool",
			wantBase:  addr(0x400000),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := buildLog(tc.tableDecl, tc.columns, []string{tc.modLine}, 1,
				bbRecord(0x10, 4, 0))

			doc, err := NewCovDocumentFromData(data)
			require.NoError(t, err)
			assert.Empty(t, doc.Index.Warnings())

			mods := doc.Index.Modules()
			require.Len(t, mods, 1)
			assert.Equal(t, 0, mods[0].ID)
			assert.Equal(t, "tool", mods[0].Filename)
			if tc.wantBase != nil {
				require.NotNil(t, mods[0].Base)
				assert.Equal(t, *tc.wantBase, *mods[0].Base)
			} else {
				assert.Nil(t, mods[0].Base)
			}

			blocks := doc.Index.Blocks()
			require.Len(t, blocks, 1)
			assert.Equal(t, uint32(0x10), blocks[0].Offset)
			assert.Equal(t, uint16(4), blocks[0].Size)
			assert.Equal(t, 0, blocks[0].ModuleID)
			assert.Equal(t, uint64(1), blocks[0].HitCount)
		})
	}
}

func TestWorkedExample(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"",
		[]string{"0, 0x400000, 0x401000, 0, 0, 0, 0, /bin/app"},
		1,
		bbRecord(0x10, 4, 0))

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)

	mods := doc.Index.Modules()
	require.Len(t, mods, 1)
	assert.Equal(t, 0, mods[0].ID)
	require.NotNil(t, mods[0].Base)
	require.NotNil(t, mods[0].End)
	assert.Equal(t, uint64(0x400000), *mods[0].Base)
	assert.Equal(t, uint64(0x401000), *mods[0].End)
	assert.Equal(t, "app", mods[0].Filename)

	blocks, err := doc.Index.BlocksByModule("0")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, uint32(0x10), blocks[0].Offset)
	assert.Equal(t, uint16(4), blocks[0].Size)
	assert.Equal(t, uint64(1), blocks[0].HitCount)
}

func TestGzipRoundTrip(t *testing.T) {
	plain := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		2,
		bbRecord(0x10, 4, 0),
		bbRecord(0x20, 8, 0))

	var zbuf bytes.Buffer
	zw := gzip.NewWriter(&zbuf)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	docPlain, err := NewCovDocumentFromData(plain)
	require.NoError(t, err)
	docZipped, err := NewCovDocumentFromData(zbuf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, docPlain.Summary(), docZipped.Summary())
	assert.Equal(t, docPlain.Index.Blocks(), docZipped.Index.Blocks())
}

func TestFullTraceConsolidation(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		3,
		bbRecord(0x10, 4, 0),
		bbRecord(0x20, 8, 0),
		bbRecord(0x10, 4, 0))

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Index.RawBlockCount())

	blocks := doc.Index.Blocks()
	require.Len(t, blocks, 2)

	hits, err := doc.Index.HitCountMapByModule("tool")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(0x400010), hits[0].Start)
	assert.Equal(t, uint64(2), hits[0].Count)
	assert.Equal(t, uint64(0x400020), hits[1].Start)
	assert.Equal(t, uint64(1), hits[1].Count)
}

func TestHitCountMapOrdering(t *testing.T) {
	// Records deliberately out of address order.
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		4,
		bbRecord(0x200, 4, 0),
		bbRecord(0x10, 4, 0),
		bbRecord(0x800, 16, 0),
		bbRecord(0x40, 2, 0))

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)

	hits, err := doc.Index.HitCountMapByModule("tool")
	require.NoError(t, err)
	require.Len(t, hits, 4)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Start, hits[i].Start)
	}
	assert.Equal(t, uint64(0x400010), hits[0].Start)
}

func TestTruncatedBlockSection(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		2,
		bbRecord(0x10, 4, 0),
		[]byte{0xAA, 0xBB, 0xCC}) // partial trailing record

	_, err := NewCovDocumentFromData(data)
	var truncated *TruncatedBlockRecordError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, 3, truncated.Remaining)
}

func TestUnsupportedTableVersion(t *testing.T) {
	data := buildLog(
		"Module Table: version 9, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		0)

	_, err := NewCovDocumentFromData(data)
	var unsupported *UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 9, unsupported.Version)
	assert.Equal(t, "module table", unsupported.What)
}

func TestUnsupportedFileVersion(t *testing.T) {
	data := []byte("DRCOV VERSION: 3\nDRCOV FLAVOR: drcov\n")
	_, err := NewCovDocumentFromData(data)
	var unsupported *UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "file", unsupported.What)
}

func TestOrphanBlocksAreWarnings(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		2,
		bbRecord(0x10, 4, 0),
		bbRecord(0x20, 4, 7)) // no module 7

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)

	var orphans []*OrphanBlockWarning
	for _, w := range doc.Index.Warnings() {
		if o, ok := w.(*OrphanBlockWarning); ok {
			orphans = append(orphans, o)
		}
	}
	require.Len(t, orphans, 1)
	assert.Equal(t, 7, orphans[0].Block.ModuleID)

	blocks, err := doc.Index.BlocksByModule("tool")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestDeclaredCountMismatchWarning(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		5, // declares five, ships one
		bbRecord(0x10, 4, 0))

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)

	var mismatch *BlockCountMismatchWarning
	found := false
	for _, w := range doc.Index.Warnings() {
		if m, ok := w.(*BlockCountMismatchWarning); ok {
			mismatch = m
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, 5, mismatch.Declared)
	assert.Equal(t, 1, mismatch.Actual)
}

func TestSummaryYAML(t *testing.T) {
	data := buildLog(
		"Module Table: version 2, count 1",
		"id, base, end, entry, path",
		[]string{"0, 0x400000, 0x401000, 0x400100, /bin/tool"},
		1,
		bbRecord(0x10, 4, 0))

	doc, err := NewCovDocumentFromData(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Summary().WriteYAML(&buf))
	out := buf.String()
	assert.Contains(t, out, "filename: tool")
	assert.Contains(t, out, "table_version: 2")
}

func addr(v uint64) *uint64 { return &v }
