package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockTableBinary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("BB Table: 2 bbs\n")
	buf.Write(bbRecord(0x10, 4, 0))
	buf.Write(bbRecord(0xfee0, 0x20, 3))

	table, err := ParseBlockTable(NewCursor(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, table.Binary)
	assert.Equal(t, 2, table.Declared)
	require.Len(t, table.Blocks, 2)

	assert.Equal(t, uint32(0x10), table.Blocks[0].Offset)
	assert.Equal(t, uint16(4), table.Blocks[0].Size)
	assert.Equal(t, 0, table.Blocks[0].ModuleID)

	assert.Equal(t, uint32(0xfee0), table.Blocks[1].Offset)
	assert.Equal(t, uint16(0x20), table.Blocks[1].Size)
	assert.Equal(t, 3, table.Blocks[1].ModuleID)
}

func TestParseBlockTableEmpty(t *testing.T) {
	table, err := ParseBlockTable(NewCursor([]byte("BB Table: 0 bbs\n")))
	require.NoError(t, err)
	assert.Empty(t, table.Blocks)
}

func TestParseBlockTableTruncated(t *testing.T) {
	cases := []int{1, 3, 7, 9, 15}
	for _, extra := range cases {
		var buf bytes.Buffer
		buf.WriteString("BB Table: 1 bbs\n")
		buf.Write(bytes.Repeat([]byte{0x41}, extra))

		_, err := ParseBlockTable(NewCursor(buf.Bytes()))
		if extra%BlockRecordSize == 0 {
			assert.NoError(t, err)
			continue
		}
		var truncated *TruncatedBlockRecordError
		require.ErrorAs(t, err, &truncated, "extra=%d", extra)
		assert.Equal(t, extra%BlockRecordSize, truncated.Remaining)
	}
}

func TestParseBlockTableAscii(t *testing.T) {
	text := "BB Table: 3 bbs\n" +
		"module id, start, size:\n" +
		"module[  0]: 0x0000000000001090, 4\n" +
		"module[  0]: 0x00000000000010a0, 18\n" +
		"module[  2]: 0x0000000000004b60, 9\n"

	table, err := ParseBlockTable(NewCursor([]byte(text)))
	require.NoError(t, err)
	assert.False(t, table.Binary)
	require.Len(t, table.Blocks, 3)

	assert.Equal(t, uint32(0x1090), table.Blocks[0].Offset)
	assert.Equal(t, uint16(4), table.Blocks[0].Size)
	assert.Equal(t, uint32(0x10a0), table.Blocks[1].Offset)
	assert.Equal(t, uint16(18), table.Blocks[1].Size)
	assert.Equal(t, 2, table.Blocks[2].ModuleID)
}

func TestParseBlockTableAsciiMalformed(t *testing.T) {
	text := "BB Table: 2 bbs\n" +
		"module id, start, size:\n" +
		"module[  0]: 0x1090, 4\n" +
		"module 1 at 0x2000\n"

	_, err := ParseBlockTable(NewCursor([]byte(text)))
	var blockErr *BlockParseError
	require.ErrorAs(t, err, &blockErr)
	assert.Equal(t, 4, blockErr.Line)
}

func TestParseBlockTableBadTitle(t *testing.T) {
	for _, text := range []string{
		"BB Table: many bbs\n",
		"BB Table: 2\n",
		"Basic Blocks: 2 bbs\n",
	} {
		_, err := ParseBlockTable(NewCursor([]byte(text)))
		var hdrErr *HeaderParseError
		assert.ErrorAs(t, err, &hdrErr, "input %q", text)
	}
}
