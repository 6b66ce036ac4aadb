package internal

import (
	"os"
)

// CovDocument is one fully parsed drcov log: header facts plus the query
// index. Parsing runs the whole pipeline up front — decompress, header,
// module table, BB table, index — and either returns a complete document
// or a structural error; there is no partially parsed state to observe.
type CovDocument struct {
	Version      int
	Flavor       string
	TableVersion FormatVersion
	Index        *CoverageIndex
}

func NewCovDocument(path string) (*CovDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewCovDocumentFromData(data)
}

func NewCovDocumentFromData(data []byte) (*CovDocument, error) {
	data, err := Decompress(data)
	if err != nil {
		return nil, err
	}

	cur := NewCursor(data)
	header, err := ParseHeader(cur)
	if err != nil {
		return nil, err
	}

	modules, err := ParseModules(cur, header)
	if err != nil {
		return nil, err
	}

	table, err := ParseBlockTable(cur)
	if err != nil {
		return nil, err
	}

	return &CovDocument{
		Version:      header.Version,
		Flavor:       header.Flavor,
		TableVersion: header.TableVersion,
		Index:        NewCoverageIndex(modules, table),
	}, nil
}
