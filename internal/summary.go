package internal

import (
	"io"

	"gopkg.in/yaml.v3"
)

type ModuleSummary struct {
	ID        int     `yaml:"id"`
	Filename  string  `yaml:"filename"`
	Path      string  `yaml:"path"`
	Base      *uint64 `yaml:"base,omitempty"`
	End       *uint64 `yaml:"end,omitempty"`
	Entry     *uint64 `yaml:"entry,omitempty"`
	Checksum  *uint64 `yaml:"checksum,omitempty"`
	Timestamp *uint64 `yaml:"timestamp,omitempty"`
	Size      *uint64 `yaml:"size,omitempty"`
	Blocks    int     `yaml:"blocks"`
}

type CoverageSummary struct {
	Version      int             `yaml:"version"`
	Flavor       string          `yaml:"flavor"`
	TableVersion int             `yaml:"table_version"`
	RawBlocks    int             `yaml:"raw_blocks"`
	Blocks       int             `yaml:"blocks"`
	Modules      []ModuleSummary `yaml:"modules"`
	Warnings     []string        `yaml:"warnings,omitempty"`
}

// Summary flattens the document for human-facing output.
func (doc *CovDocument) Summary() *CoverageSummary {
	ix := doc.Index
	s := &CoverageSummary{
		Version:      doc.Version,
		Flavor:       doc.Flavor,
		TableVersion: int(doc.TableVersion),
		RawBlocks:    ix.RawBlockCount(),
		Blocks:       len(ix.Blocks()),
	}
	for _, mod := range ix.Modules() {
		blocks, _ := ix.BlocksByModuleID(mod.ID)
		s.Modules = append(s.Modules, ModuleSummary{
			ID:        mod.ID,
			Filename:  mod.Filename,
			Path:      mod.Path,
			Base:      mod.Base,
			End:       mod.End,
			Entry:     mod.Entry,
			Checksum:  mod.Checksum,
			Timestamp: mod.Timestamp,
			Size:      mod.Size,
			Blocks:    len(blocks),
		})
	}
	for _, w := range ix.Warnings() {
		s.Warnings = append(s.Warnings, w.Warning())
	}
	return s
}

func (s *CoverageSummary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}
