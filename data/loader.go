package data

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Fixture represents JSON or YAML test data that was read from a file, after post-processing to
// expand constants, parameters and generated values. A file without parameters produces one
// Fixture; a parameterized file produces one per parameter set, each with its own Data.
type Fixture struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

// ParseInto parses the fixture data into target as ParseJSONOrYAML does.
func (f Fixture) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(f.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", f.BaseName, f.ParamsString(), err)
	}
	return nil
}

// Entries returns the named values defined by the fixture: every top-level property other than
// "constants" and "parameters". The fixture must be an object.
func (f Fixture) Entries() (map[string]ldvalue.Value, error) {
	var doc ldvalue.Value
	if err := f.ParseInto(&doc); err != nil {
		return nil, err
	}
	if doc.Type() != ldvalue.ObjectType {
		return nil, fmt.Errorf("fixture %q must be an object, got %s", f.BaseName, doc.Type())
	}
	ret := make(map[string]ldvalue.Value, doc.Count())
	for _, key := range doc.Keys(nil) {
		if key == "constants" || key == "parameters" {
			continue
		}
		ret[key] = doc.GetByKey(key)
	}
	return ret, nil
}

// ParamsString describes the parameter set for error messages, such as "(id=1,name=x)".
func (f Fixture) ParamsString() string {
	if len(f.Params) == 0 {
		return ""
	}
	names := make([]string, 0, len(f.Params))
	for k := range f.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+f.Params[k].String())
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Loader reads fixture files from a file system.
type Loader struct {
	fsys      fs.FS
	generator *Generator
}

// NewLoader creates a Loader. Placeholders such as "<$uuid>" are filled in by the generator; if
// it is nil, a time-seeded one is used.
func NewLoader(fsys fs.FS, generator *Generator) *Loader {
	if generator == nil {
		generator = NewGenerator()
	}
	return &Loader{fsys: fsys, generator: generator}
}

// LoadFile reads a fixture file and performs any necessary substitutions. It can return more than
// one Fixture because any file can be parameterized.
func (l *Loader) LoadFile(filePath string) ([]Fixture, error) {
	filePath = strings.TrimPrefix(path.Clean(filePath), "/")
	data, err := fs.ReadFile(l.fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	fixtures, err := expandSubstitutions(data, l.generator)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filePath, err)
	}
	for i := range fixtures {
		fixtures[i].FilePath = filePath
		fixtures[i].BaseName = path.Base(filePath)
	}
	return fixtures, nil
}

// LoadAll reads every fixture file in a directory, in name order.
func (l *Loader) LoadAll(dir string) ([]Fixture, error) {
	files, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, err
	}
	var ret []Fixture
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		fixtures, err := l.LoadFile(path.Join(dir, file.Name()))
		if err != nil {
			return nil, err
		}
		ret = append(ret, fixtures...)
	}
	return ret, nil
}
