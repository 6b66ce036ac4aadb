package internal

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/firodj/covsora/models"
)

type SQLRepository struct {
	db *bun.DB
}

// NewSQLRepository opens a sqlite database at dsn, e.g. "coverage.db" or
// "file::memory:?cache=shared".
func NewSQLRepository(dsn string, verbose bool) (*SQLRepository, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	repo := &SQLRepository{
		db: bun.NewDB(sqldb, sqlitedialect.New()),
	}

	repo.db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(verbose),
		bundebug.WithEnabled(verbose),
	))

	return repo, nil
}

func (repo *SQLRepository) Close() error {
	return repo.db.Close()
}

// SaveDocument creates the schema and inserts every module and every
// consolidated block of the parsed document.
func (repo *SQLRepository) SaveDocument(ctx context.Context, doc *CovDocument) error {
	for _, model := range []interface{}{(*models.Module)(nil), (*models.BasicBlock)(nil)} {
		if _, err := repo.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	ix := doc.Index

	rows := make([]models.Module, 0, len(ix.Modules()))
	for _, mod := range ix.Modules() {
		rows = append(rows, models.Module{
			ID:        int64(mod.ID),
			Filename:  mod.Filename,
			Path:      mod.Path,
			Base:      mod.Base,
			End:       mod.End,
			Entry:     mod.Entry,
			Checksum:  mod.Checksum,
			Timestamp: mod.Timestamp,
			Size:      mod.Size,
		})
	}
	if len(rows) > 0 {
		if _, err := repo.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return err
		}
	}

	blocks := ix.Blocks()
	bbRows := make([]models.BasicBlock, 0, len(blocks))
	for _, bb := range blocks {
		bbRows = append(bbRows, models.BasicBlock{
			ModuleID: int64(bb.ModuleID),
			Offset:   bb.Offset,
			Size:     bb.Size,
			HitCount: bb.HitCount,
		})
	}
	if len(bbRows) > 0 {
		if _, err := repo.db.NewInsert().Model(&bbRows).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
