// Package content loads the case catalogs, framing briefs and play-through scripts that ship embedded in the binary.
package content

import (
	"bytes"
	"embed"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.NewSentinel("content not found")

//go:embed cases/*.yaml briefs/*.yaml scripts/*.yaml
var contentFS embed.FS

// LoadCase reads and validates an embedded case by name.
func LoadCase(name string) (*game.Catalog, error) {
	data, err := contentFS.ReadFile(path.Join("cases", name+".yaml"))
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, "load case", slog.String("case", name),
			slog.String("available", strings.Join(ListCases(), ", ")))
	}
	return ParseCase(data)
}

// ParseCase decodes a case file and validates its references.
func ParseCase(data []byte) (*game.Catalog, error) {
	var f caseFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse case")
	}
	c, err := f.catalog()
	if err != nil {
		return nil, errors.Wrap(err, "convert case", slog.String("case", f.ID))
	}
	if err = c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate case", slog.String("case", f.ID))
	}
	return c, nil
}

// ListCases returns the names of all embedded cases, sorted.
func ListCases() []string {
	return list("cases")
}

// LoadBrief reads and validates an embedded framing brief by name.
func LoadBrief(name string) (*framing.Graph, error) {
	data, err := contentFS.ReadFile(path.Join("briefs", name+".yaml"))
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, "load brief", slog.String("brief", name),
			slog.String("available", strings.Join(ListBriefs(), ", ")))
	}
	return ParseBrief(data)
}

// ParseBrief decodes a framing brief and validates the graph.
func ParseBrief(data []byte) (*framing.Graph, error) {
	var f briefFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse brief")
	}
	g := f.graph()
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate brief", slog.String("brief", f.ID))
	}
	return g, nil
}

// ListBriefs returns the names of all embedded briefs, sorted.
func ListBriefs() []string {
	return list("briefs")
}

func list(dir string) []string {
	entries, _ := contentFS.ReadDir(dir)
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// decodeStrict rejects unknown keys so that typos in content files surface at load time.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(errors.Join(ErrInvalidContent, err), "decode yaml")
	}
	return nil
}
