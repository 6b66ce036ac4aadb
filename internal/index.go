package internal

import (
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/firodj/covsora/binarysearchtree"
)

// BlockKey is the consolidation key for basic blocks. A full-trace log
// repeats the same block once per execution; the index folds repeats into
// one entry and counts them.
type BlockKey struct {
	ModuleID int
	Offset   uint32
	Size     uint16
}

type HitCount struct {
	Start uint64
	Count uint64
}

// CoverageIndex owns the parsed modules and blocks and answers queries over
// them. Construction validates every block's module reference; orphans
// become warnings, not failures, since real-world instrumentation emits
// them and partial coverage is still useful. Once built the index is
// immutable and safe for concurrent readers.
type CoverageIndex struct {
	modules []*Module
	byID    map[int]*Module

	blocks    *orderedmap.OrderedMap[BlockKey, *BasicBlock]
	perModule map[int][]*BasicBlock
	byAddress binarysearchtree.AVLTree[uint64, *BasicBlock]

	rawCount int
	warnings []Warning
}

func NewCoverageIndex(modules []*Module, table *BlockTable) *CoverageIndex {
	ix := &CoverageIndex{
		modules:   modules,
		byID:      make(map[int]*Module, len(modules)),
		blocks:    orderedmap.New[BlockKey, *BasicBlock](),
		perModule: make(map[int][]*BasicBlock),
		rawCount:  len(table.Blocks),
	}
	for _, mod := range modules {
		ix.byID[mod.ID] = mod
	}

	for _, raw := range table.Blocks {
		mod, ok := ix.byID[raw.ModuleID]
		if !ok {
			ix.warnings = append(ix.warnings, &OrphanBlockWarning{Block: raw})
			continue
		}

		key := BlockKey{ModuleID: raw.ModuleID, Offset: raw.Offset, Size: raw.Size}
		if existing, ok := ix.blocks.Get(key); ok {
			existing.HitCount++
			continue
		}

		bb := raw
		ix.blocks.Set(key, &bb)
		ix.perModule[mod.ID] = append(ix.perModule[mod.ID], &bb)
		if mod.Base != nil {
			ix.byAddress.Insert(*mod.Base+uint64(raw.Offset), &bb)
		}
	}

	if table.Declared != len(table.Blocks) {
		ix.warnings = append(ix.warnings, &BlockCountMismatchWarning{
			Declared: table.Declared,
			Actual:   len(table.Blocks),
		})
	}
	return ix
}

// Modules returns all modules in table order.
func (ix *CoverageIndex) Modules() []*Module {
	return ix.modules
}

// Blocks returns every consolidated block in first-occurrence order.
func (ix *CoverageIndex) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, ix.blocks.Len())
	for pair := ix.blocks.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// RawBlockCount is the number of raw records decoded, before consolidation.
func (ix *CoverageIndex) RawBlockCount() int {
	return ix.rawCount
}

// Warnings lists the non-fatal findings collected during construction.
func (ix *CoverageIndex) Warnings() []Warning {
	return ix.warnings
}

// Module finds a module by filename. The fuzzy lookup is case-insensitive
// and matches substrings; when that misses and the query carries an
// extension, it is cleaved off and the lookup retried, so "app" finds
// "app.exe" and "app.exe" finds "app".
func (ix *CoverageIndex) Module(name string, fuzzy bool) *Module {
	if !fuzzy {
		for _, mod := range ix.modules {
			if mod.Filename == name {
				return mod
			}
		}
		return nil
	}

	lower := strings.ToLower(name)
	for _, mod := range ix.modules {
		if strings.Contains(strings.ToLower(mod.Filename), lower) {
			return mod
		}
	}

	if i := strings.IndexByte(lower, '.'); i >= 0 {
		lower = lower[:i]
		for _, mod := range ix.modules {
			if strings.Contains(strings.ToLower(mod.Filename), lower) {
				return mod
			}
		}
	}
	return nil
}

// resolve accepts either a decimal module id or a (fuzzy) filename.
func (ix *CoverageIndex) resolve(key string) (*Module, error) {
	if id, err := strconv.Atoi(key); err == nil {
		if mod, ok := ix.byID[id]; ok {
			return mod, nil
		}
		return nil, &ModuleNotFoundError{Key: key}
	}
	if mod := ix.Module(key, true); mod != nil {
		return mod, nil
	}
	return nil, &ModuleNotFoundError{Key: key}
}

// BlocksByModule returns the consolidated blocks belonging to the module
// named by id or filename, in first-occurrence order.
func (ix *CoverageIndex) BlocksByModule(key string) ([]*BasicBlock, error) {
	mod, err := ix.resolve(key)
	if err != nil {
		return nil, err
	}
	return ix.perModule[mod.ID], nil
}

// BlocksByModuleID is the direct-id variant of BlocksByModule.
func (ix *CoverageIndex) BlocksByModuleID(id int) ([]*BasicBlock, error) {
	if _, ok := ix.byID[id]; !ok {
		return nil, &ModuleNotFoundError{Key: strconv.Itoa(id)}
	}
	return ix.perModule[id], nil
}

// HitCountMapByModule returns (start address, hit count) pairs for the
// module, start = base + offset, ordered by ascending start address.
func (ix *CoverageIndex) HitCountMapByModule(key string) ([]HitCount, error) {
	mod, err := ix.resolve(key)
	if err != nil {
		return nil, err
	}

	base := mod.StartAddress()
	out := make([]HitCount, 0, len(ix.perModule[mod.ID]))
	for _, bb := range ix.perModule[mod.ID] {
		out = append(out, HitCount{Start: base + uint64(bb.Offset), Count: bb.HitCount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// BlockAt returns the consolidated block covering the absolute address, or
// nil. Only blocks of modules that report a base address are reachable this
// way.
func (ix *CoverageIndex) BlockAt(addr uint64) *BasicBlock {
	floor, _ := ix.byAddress.FloorCeil(addr)
	if floor.End() {
		return nil
	}
	bb := floor.Value()
	if addr >= floor.Key()+uint64(bb.Size) {
		return nil
	}
	return bb
}
