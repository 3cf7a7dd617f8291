package language

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/zjrosen/quill/internal/grammar"
)

//go:embed languages/*.yaml
var builtinFS embed.FS

const builtinPrefix = "builtin:"

// Builtin returns the names of the languages shipped with quill.
func Builtin() []string {
	entries, err := fs.ReadDir(builtinFS, "languages")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadBuiltin compiles a language shipped with quill.
func LoadBuiltin(name string, opts ...grammar.Option) (*Language, error) {
	file := "languages/" + name + ".yaml"
	data, err := builtinFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	lang, err := Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	lang.Source = builtinPrefix + file
	return lang, nil
}

func isBuiltinSource(src string) bool {
	return strings.HasPrefix(src, builtinPrefix)
}
