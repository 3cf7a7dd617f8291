package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/config"
)

func TestHighlight(t *testing.T) {
	_, work := testEnv(t)
	src := "const x = 42; // answer\n"
	path := writeFile(t, work, "main.js", src)

	plain, err := run(t, "", "highlight", path, "--color", "never")
	require.NoError(t, err)
	require.Equal(t, src, plain)

	colored, err := run(t, "", "highlight", path, "--color", "always", "--theme", "dracula")
	require.NoError(t, err)
	require.Contains(t, colored, "\x1b[")
	require.Equal(t, src, ansi.Strip(colored))
}

func TestHighlight_Errors(t *testing.T) {
	testEnv(t)

	_, err := run(t, `{"a": 1}`, "highlight")
	require.ErrorContains(t, err, "--lang")

	_, err = run(t, `{}`, "highlight", "--lang", "cobol")
	require.ErrorContains(t, err, "unknown language")

	_, err = run(t, `{}`, "highlight", "--lang", "json", "--color", "sometimes")
	require.ErrorContains(t, err, "--color")

	_, err = run(t, `{}`, "highlight", "--lang", "json", "--watch")
	require.ErrorContains(t, err, "--watch needs a file")
}

func TestHighlight_UserLanguage(t *testing.T) {
	home, work := testEnv(t)
	writeFile(t, filepath.Join(home, ".config", "quill", "languages"), "ini.yaml",
		"name: ini\nextensions: [.ini]\ngrammar:\n  - section: '/\\[[^\\]]+\\]/'\n")
	path := writeFile(t, work, "app.ini", "[core]\nx = 1\n")

	out, err := run(t, "", "highlight", path, "--color", "never")
	require.NoError(t, err)
	require.Equal(t, "[core]\nx = 1\n", out)

	out, err = run(t, "", "tokens", path)
	require.NoError(t, err)
	require.Contains(t, out, "type: section")
}

func TestHTML(t *testing.T) {
	_, work := testEnv(t)
	path := writeFile(t, work, "data.json", `{"a": 1}`)

	out, err := run(t, "", "html", path)
	require.NoError(t, err)
	require.Equal(t, `<pre class="quill"><code><span class="punctuation">{</span><span class="property">&#34;a&#34;</span>`+
		`<span class="operator">:</span> <span class="number">1</span><span class="punctuation">}</span></code></pre>`+"\n", out)

	out, err = run(t, "", "html", path, "--css", "--theme", "nord")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<style>\n.quill {"))

	out, err = run(t, "", "html", path, "--standalone")
	require.NoError(t, err)
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, "<title>data.json</title>")

	out, err = run(t, "", "html", "--css-only", "--lang", "json", "--theme", "dracula")
	require.NoError(t, err)
	require.NotContains(t, out, "<span")
	require.Contains(t, out, ".quill .keyword {")
}

func TestTokens(t *testing.T) {
	testEnv(t)

	out, err := run(t, `{"a": "x\n"}`, "tokens", "--lang", "json")
	require.NoError(t, err)

	var tree []any
	require.NoError(t, yaml.Unmarshal([]byte(out), &tree))
	require.Equal(t, []any{
		map[string]any{"type": "punctuation", "content": "{"},
		map[string]any{"type": "property", "content": `"a"`},
		map[string]any{"type": "operator", "content": ":"},
		" ",
		map[string]any{"type": "string", "content": []any{
			`"x`,
			map[string]any{"type": "escape", "content": `\n`},
			`"`,
		}},
		map[string]any{"type": "punctuation", "content": "}"},
	}, tree)
}

func TestComplete_Arguments(t *testing.T) {
	testEnv(t)

	out, err := run(t, "", "complete", "hell", "hello-world", "help", "hell", "hello", "-a", "prefix-suffix-sorted")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, []string{"CANDIDATE", "SCORE", "#"}, strings.Fields(lines[0]))
	require.Equal(t, []string{"hell", "1.000", "2"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"hello", "0.990", "3"}, strings.Fields(lines[2]))
	require.Equal(t, []string{"hello-world", "0.930", "0"}, strings.Fields(lines[3]))
}

func TestComplete_Stdin(t *testing.T) {
	testEnv(t)

	out, err := run(t, "main\nfeature/login\n\nfix/login-bug\n", "complete", "fxlg", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "fix/login-bug", strings.Fields(lines[1])[0])
}

func TestComplete_LanguageCandidates(t *testing.T) {
	_, work := testEnv(t)

	out, err := run(t, "", "complete", "nu", "--lang", "json", "--trigger", "property")
	require.NoError(t, err)
	require.Contains(t, out, "null")
	require.NotContains(t, out, "true")

	path := writeFile(t, work, "style.css", "h1 { col }")
	out, err = run(t, "", "complete", "col", "--file", path, "--offset", "9")
	require.NoError(t, err)
	require.Contains(t, out, "color")
}

func TestComplete_TruncatesWideCandidates(t *testing.T) {
	testEnv(t)

	long := strings.Repeat("a", 30) + "z"
	out, err := run(t, "", "complete", "a", long, "--width", "10", "-a", "prefix")
	require.NoError(t, err)
	require.Contains(t, out, strings.Repeat("a", 9)+"…")
	require.NotContains(t, out, long)
}

func TestComplete_Errors(t *testing.T) {
	testEnv(t)

	_, err := run(t, "", "complete")
	require.Error(t, err)

	_, err = run(t, "", "complete", "x", "y", "-a", "levenshtein")
	require.ErrorContains(t, err, "completion.algorithm")

	_, err = run(t, "", "complete", "x", "--offset", "3")
	require.ErrorContains(t, err, "--offset needs --file")

	_, err = run(t, "", "complete", "x", "y", "--save")
	require.ErrorContains(t, err, "--save needs --algorithm")

	out, err := run(t, "", "complete", "zzz", "abc")
	require.NoError(t, err)
	require.Equal(t, "no matches\n", out)
}

func TestComplete_SaveAlgorithm(t *testing.T) {
	home, _ := testEnv(t)

	_, err := run(t, "", "complete", "x", "xy", "-a", "dice", "--save")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(home, ".config", "quill", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "dice", cfg.Completion.Algorithm)
}

func TestLanguages(t *testing.T) {
	testEnv(t)

	out, err := run(t, "", "languages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, []string{"NAME", "EXTENSIONS", "SOURCE"}, strings.Fields(lines[0]))
	require.Equal(t, "css", strings.Fields(lines[1])[0])

	out, err = run(t, "", "languages", "--ext", "MJS")
	require.NoError(t, err)
	require.Contains(t, out, "javascript")
	require.NotContains(t, out, "json")

	out, err = run(t, "", "languages", "--json", "--rules", "--ext", ".json")
	require.NoError(t, err)
	var dtos []languageDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	require.Len(t, dtos, 1)
	require.Equal(t, "json", dtos[0].Name)
	require.True(t, dtos[0].Builtin)
	require.Contains(t, dtos[0].Rules, "property")
	require.Equal(t, []string{"*"}, dtos[0].Triggers)
	require.NotContains(t, out, "line_comment")

	out, err = run(t, "", "languages", "--json", "--rules", "--ext", ".js")
	require.NoError(t, err)
	require.Contains(t, out, `"line_comment": "//"`)
	dtos = nil
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	require.Len(t, dtos, 1)
	require.Equal(t, "//", dtos[0].LineComment)
}

func TestThemes(t *testing.T) {
	home, _ := testEnv(t)

	out, err := run(t, "", "themes")
	require.NoError(t, err)
	require.Contains(t, out, "* default")
	require.Contains(t, out, "  dracula")

	out, err = run(t, "", "themes", "--use", "nord", "--set", "string.template.italic=true")
	require.NoError(t, err)
	require.Contains(t, out, "theme.preset = nord")
	require.Contains(t, out, "theme.styles.string.template.italic = true")

	cfg, err := config.Load(filepath.Join(home, ".config", "quill", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "nord", cfg.Theme.Preset)
	require.Equal(t, "true", cfg.Theme.FlattenedStyles()["string.template"]["italic"])

	out, err = run(t, "", "themes")
	require.NoError(t, err)
	require.Contains(t, out, "* nord")

	_, err = run(t, "", "themes", "--use", "solarized")
	require.Error(t, err)
}

func TestThemes_Preview(t *testing.T) {
	testEnv(t)

	out, err := run(t, "", "themes", "--preview", "--color", "always")
	require.NoError(t, err)
	require.Contains(t, out, "\x1b[")
	require.Contains(t, ansi.Strip(out), "    "+previewSource)
}

func TestParseStyleAssignment(t *testing.T) {
	typ, attr, value, err := parseStyleAssignment("string.template.color=#FF0000")
	require.NoError(t, err)
	require.Equal(t, []string{"string.template", "color", "#FF0000"}, []string{typ, attr, value})

	for _, bad := range []string{"keyword", "color=red", ".color=red", "keyword.=red"} {
		_, _, _, err := parseStyleAssignment(bad)
		require.Error(t, err, bad)
	}
}

func TestReadSource_Missing(t *testing.T) {
	_, err := readSource(strings.NewReader(""), filepath.Join(t.TempDir(), "nope.js"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
