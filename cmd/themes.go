package cmd

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/syntax"
)

const previewSource = `const greet = (name) => "hi " + name; // 42`

func newThemesCmd(a *app) *cobra.Command {
	var (
		use     string
		set     []string
		preview bool
		color   string
	)
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List theme presets or change the configured theme",
		Long: `List the built-in theme presets. The active preset is marked with *.

Examples:
  quill themes
  quill themes --preview --color always

  # Store a preset in the config file
  quill themes --use catppuccin-mocha

  # Override token styles in the config file (TYPE.ATTRIBUTE=VALUE)
  quill themes --set keyword.color=#FF79C6 --set string.template.italic=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if use != "" {
				if err := config.SaveThemePreset(a.cfgPath, use); err != nil {
					return err
				}
				a.cfg.Theme.Preset = use
				_, _ = fmt.Fprintf(out, "theme.preset = %s (%s)\n", use, a.cfgPath)
			}
			for _, kv := range set {
				typ, attr, value, err := parseStyleAssignment(kv)
				if err != nil {
					return err
				}
				if err := config.SaveThemeStyle(a.cfgPath, typ, attr, value); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "theme.styles.%s.%s = %s (%s)\n", typ, attr, value, a.cfgPath)
			}
			if use != "" || len(set) > 0 {
				return nil
			}

			r, err := newRenderer(out, color)
			if err != nil {
				return err
			}
			var sample syntax.Tree
			if preview {
				js, err := language.LoadBuiltin("javascript")
				if err != nil {
					return err
				}
				sample = syntax.Tokenize(js.Grammar, previewSource)
			}

			active := a.cfg.Theme.Preset
			names := render.PresetNames()
			col := 0
			for _, name := range names {
				col = max(col, runewidth.StringWidth(name))
			}
			for _, name := range names {
				mark := " "
				if name == active && a.cfg.Theme.File == "" {
					mark = "*"
				}
				p := render.Presets[name]
				if _, err := fmt.Fprintf(out, "%s %s  %s\n", mark, runewidth.FillRight(name, col), p.Description); err != nil {
					return err
				}
				if preview {
					if _, err := fmt.Fprintf(out, "    %s\n", renderStyled(r, render.Flatten(sample, p.Theme()))); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&use, "use", "", "store this preset as theme.preset in the config file")
	cmd.Flags().StringArrayVar(&set, "set", nil, "store a style override TYPE.ATTRIBUTE=VALUE (repeatable)")
	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "show a highlighted sample for each preset")
	cmd.Flags().StringVar(&color, "color", "auto", "color output for --preview: auto, always, never")
	return cmd
}

// parseStyleAssignment splits "string.template.italic=true" into the token
// type, the attribute and the value. The attribute is the last dotted part.
func parseStyleAssignment(kv string) (typ, attr, value string, err error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return "", "", "", fmt.Errorf("--set %q: want TYPE.ATTRIBUTE=VALUE", kv)
	}
	i := strings.LastIndexByte(key, '.')
	if i <= 0 || i == len(key)-1 {
		return "", "", "", fmt.Errorf("--set %q: want TYPE.ATTRIBUTE=VALUE", kv)
	}
	return key[:i], key[i+1:], value, nil
}
