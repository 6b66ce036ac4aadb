package internal

import (
	"fmt"
)

// Structural failures abort the whole parse; no partial result is returned
// for any of these. Data-quality issues are Warnings instead and ride along
// with a successful parse.

type DecompressionError struct {
	Err error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("gzip stream is truncated or corrupt: %v", e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

type UnsupportedVersionError struct {
	Line    int
	What    string // "file" or "module table"
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("line %d: unsupported %s version %d", e.Line, e.What, e.Version)
}

type HeaderParseError struct {
	Line     int
	Expected string
	Got      string
}

func (e *HeaderParseError) Error() string {
	return fmt.Sprintf("line %d: expected %s, got %q", e.Line, e.Expected, e.Got)
}

type ModuleParseError struct {
	Index int // module record index within the table
	Line  int
	Field string
	Err   error
}

func (e *ModuleParseError) Error() string {
	return fmt.Sprintf("line %d: module record %d, field %q: %v", e.Line, e.Index, e.Field, e.Err)
}

func (e *ModuleParseError) Unwrap() error { return e.Err }

type DuplicateModuleIdError struct {
	Line  int
	Index int
	ID    int
}

func (e *DuplicateModuleIdError) Error() string {
	return fmt.Sprintf("line %d: module record %d redeclares id %d", e.Line, e.Index, e.ID)
}

type TruncatedBlockRecordError struct {
	Offset    int // byte offset of the partial record
	Remaining int // leftover bytes, 1..7
}

func (e *TruncatedBlockRecordError) Error() string {
	return fmt.Sprintf("offset %d: partial basic block record, %d trailing bytes (record width is %d)",
		e.Offset, e.Remaining, BlockRecordSize)
}

type BlockParseError struct {
	Line  int
	Entry string
}

func (e *BlockParseError) Error() string {
	return fmt.Sprintf("line %d: malformed basic block entry %q", e.Line, e.Entry)
}

type ModuleNotFoundError struct {
	Key string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("no coverage for module %q in log", e.Key)
}

// Warning is a non-fatal data-quality finding collected during index
// construction. The parse still succeeds; callers decide what to do.
type Warning interface {
	Warning() string
}

type OrphanBlockWarning struct {
	Block BasicBlock
}

func (w *OrphanBlockWarning) Warning() string {
	return fmt.Sprintf("basic block offset=0x%x size=%d references unknown module id %d",
		w.Block.Offset, w.Block.Size, w.Block.ModuleID)
}

type BlockCountMismatchWarning struct {
	Declared int
	Actual   int
}

func (w *BlockCountMismatchWarning) Warning() string {
	return fmt.Sprintf("BB table declares %d blocks but contains %d", w.Declared, w.Actual)
}
