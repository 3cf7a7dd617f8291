package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/language"
)

// languageDTO is the JSON form of a listed language.
type languageDTO struct {
	Name        string   `json:"name"`
	Extensions  []string `json:"extensions"`
	Source      string   `json:"source"`
	Builtin     bool     `json:"builtin"`
	Rules       []string `json:"rules,omitempty"`
	Triggers    []string `json:"triggers,omitempty"`
	LineComment string   `json:"line_comment,omitempty"`
}

func newLanguagesCmd(a *app) *cobra.Command {
	var (
		langExt   string
		langJSON  bool
		langRules bool
	)
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List available languages",
		Long: `List the built-in languages and those found in the configured language
directories. A user file with the same name as a built-in replaces it.

Examples:
  # List all languages
  quill languages

  # Only languages handling an extension
  quill languages --ext .mjs

  # Include compiled rule names and completion triggers, as JSON
  quill languages --rules --json | jq '.[].rules'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			var dtos []languageDTO
			for _, info := range filterByExtension(reg.List(), langExt) {
				dto := languageDTO{Name: info.Name, Extensions: info.Extensions, Source: info.Source, Builtin: info.Builtin}
				if langRules {
					lang, err := reg.Get(cmd.Context(), info.Name)
					if err != nil {
						return err
					}
					dto.Rules = lang.Grammar.Names()
					dto.LineComment = lang.LineComment
					for trigger := range lang.Completions {
						dto.Triggers = append(dto.Triggers, trigger)
					}
					sort.Strings(dto.Triggers)
				}
				dtos = append(dtos, dto)
			}

			if langJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dtos)
			}
			return writeLanguages(cmd.OutOrStdout(), dtos)
		},
	}
	cmd.Flags().StringVarP(&langExt, "ext", "e", "", "only languages handling this extension (e.g. .css)")
	cmd.Flags().BoolVar(&langJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&langRules, "rules", false, "compile each language and include its rule names")
	return cmd
}

// filterByExtension keeps languages registered for ext. An empty ext keeps
// everything.
func filterByExtension(infos []language.Info, ext string) []language.Info {
	if ext == "" {
		return infos
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	result := make([]language.Info, 0)
	for _, info := range infos {
		for _, e := range info.Extensions {
			if e == ext {
				result = append(result, info)
				break
			}
		}
	}
	return result
}

func writeLanguages(w io.Writer, dtos []languageDTO) error {
	nameCol, extCol := runewidth.StringWidth("NAME"), runewidth.StringWidth("EXTENSIONS")
	for _, d := range dtos {
		nameCol = max(nameCol, runewidth.StringWidth(d.Name))
		extCol = max(extCol, runewidth.StringWidth(strings.Join(d.Extensions, " ")))
	}
	row := func(name, exts, source string) error {
		_, err := fmt.Fprintf(w, "%s  %s  %s\n", runewidth.FillRight(name, nameCol), runewidth.FillRight(exts, extCol), source)
		return err
	}
	if err := row("NAME", "EXTENSIONS", "SOURCE"); err != nil {
		return err
	}
	for _, d := range dtos {
		source := d.Source
		if d.Builtin {
			source = "builtin"
		}
		if err := row(d.Name, strings.Join(d.Extensions, " "), source); err != nil {
			return err
		}
		if len(d.Rules) > 0 {
			if _, err := fmt.Fprintf(w, "  rules: %s\n", strings.Join(d.Rules, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}
