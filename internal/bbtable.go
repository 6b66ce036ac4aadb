package internal

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"
)

// BlockRecordSize is the fixed width of one binary basic block record:
// offset u32, size u16, module id u16, little-endian. This mirrors the
// bb_entry_t struct drcov itself writes.
const BlockRecordSize = 8

// BasicBlock is one executed code region. Offset is relative to the owning
// module's base. HitCount is 1 unless the index consolidated repeated
// occurrences from a full-trace log.
type BasicBlock struct {
	ModuleID int
	Offset   uint32
	Size     uint16
	HitCount uint64
}

// BlockTable is the decoded BB section. Declared is the count the title
// line promises; Blocks holds what the bytes actually contained. The two
// can disagree on sloppy logs, which the index reports as a warning.
type BlockTable struct {
	Declared int
	Binary   bool
	Blocks   []BasicBlock
}

const asciiTableHeader = "module id, start, size:"

var asciiEntryRe = regexp.MustCompile(`^module\[\s*([0-9]+)\]:\s*(0x[0-9a-fA-F]+),\s*([0-9]+)$`)

// ParseBlockTable consumes the "BB Table: N bbs" title line and then the
// record array, which is binary in every modern log but ascii when the
// trace ran with text dumping. The flavor is sniffed, never declared.
func ParseBlockTable(cur *Cursor) (*BlockTable, error) {
	lineNo := cur.Line()
	value, err := expectPrefixed(cur, "BB Table:")
	if err != nil {
		return nil, err
	}
	countText, ok := cutSuffixWord(value, "bbs")
	if !ok {
		return nil, &HeaderParseError{Line: lineNo, Expected: "BB Table: <count> bbs", Got: value}
	}
	declared, err := strconv.Atoi(countText)
	if err != nil || declared < 0 {
		return nil, &HeaderParseError{Line: lineNo, Expected: "BB Table: <count> bbs", Got: value}
	}

	table := &BlockTable{Declared: declared}

	if string(cur.PeekBytes(len("module id"))) == "module id" {
		table.Blocks, err = parseAsciiBlocks(cur)
	} else {
		table.Binary = true
		table.Blocks, err = parseBinaryBlocks(cur)
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// parseBinaryBlocks decodes fixed-width records until the buffer runs out.
// There is no trustworthy count prefix for this array, so exhaustion is the
// terminator; a partial trailing record is a structural failure.
func parseBinaryBlocks(cur *Cursor) ([]BasicBlock, error) {
	rest := cur.Remaining()
	if extra := len(rest) % BlockRecordSize; extra != 0 {
		return nil, &TruncatedBlockRecordError{
			Offset:    cur.Pos() + len(rest) - extra,
			Remaining: extra,
		}
	}

	blocks := make([]BasicBlock, 0, len(rest)/BlockRecordSize)
	for i := 0; i < len(rest); i += BlockRecordSize {
		blocks = append(blocks, BasicBlock{
			Offset:   binary.LittleEndian.Uint32(rest[i:]),
			Size:     binary.LittleEndian.Uint16(rest[i+4:]),
			ModuleID: int(binary.LittleEndian.Uint16(rest[i+6:])),
			HitCount: 1,
		})
	}
	cur.Skip(len(rest))
	return blocks, nil
}

func parseAsciiBlocks(cur *Cursor) ([]BasicBlock, error) {
	lineNo := cur.Line()
	text, ok := cur.ReadLine()
	if !ok || text != asciiTableHeader {
		return nil, &HeaderParseError{Line: lineNo, Expected: asciiTableHeader, Got: text}
	}

	var blocks []BasicBlock
	for !cur.EOF() {
		lineNo = cur.Line()
		text, _ = cur.ReadLine()
		if strings.TrimSpace(text) == "" {
			continue
		}

		m := asciiEntryRe.FindStringSubmatch(text)
		if m == nil {
			return nil, &BlockParseError{Line: lineNo, Entry: text}
		}
		modID, _ := strconv.Atoi(m[1])
		start, err := strconv.ParseUint(strings.TrimPrefix(m[2], "0x"), 16, 32)
		if err != nil {
			return nil, &BlockParseError{Line: lineNo, Entry: text}
		}
		size, err := strconv.ParseUint(m[3], 10, 16)
		if err != nil {
			return nil, &BlockParseError{Line: lineNo, Entry: text}
		}
		blocks = append(blocks, BasicBlock{
			ModuleID: modID,
			Offset:   uint32(start),
			Size:     uint16(size),
			HitCount: 1,
		})
	}
	return blocks, nil
}

// cutSuffixWord splits "2792 bbs" style values, returning the part before
// the trailing key word.
func cutSuffixWord(s, word string) (string, bool) {
	v, k, found := strings.Cut(strings.TrimSpace(s), " ")
	if !found || k != word {
		return "", false
	}
	return strings.TrimSpace(v), true
}
