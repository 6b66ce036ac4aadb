package models

import "github.com/uptrace/bun"

// Row types for the sqlite export. Optional module fields stay nullable so
// "not reported by this table version" survives the round trip into SQL.

type Module struct {
	bun.BaseModel `bun:"table:modules"`

	ID        int64 `bun:",pk"`
	Filename  string
	Path      string
	Base      *uint64
	End       *uint64
	Entry     *uint64
	Checksum  *uint64
	Timestamp *uint64
	Size      *uint64
}

type BasicBlock struct {
	bun.BaseModel `bun:"table:basic_blocks"`

	ID       int64 `bun:",pk,autoincrement"`
	ModuleID int64
	Offset   uint32
	Size     uint16
	HitCount uint64
}
