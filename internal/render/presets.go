package render

import (
	"fmt"
	"sort"
)

// Preset is a built-in color theme.
type Preset struct {
	Name        string
	Description string
	palette     palette
}

// Theme builds the preset's theme.
func (p Preset) Theme() *Theme {
	return NewTheme(p.Name, p.palette.styles())
}

// palette holds the handful of colors a preset is made of. Token types are
// assigned to palette slots in styles.
type palette struct {
	text     string
	muted    string
	keyword  string
	operator string
	field    string
	str      string
	literal  string
	paren    string
	comma    string
	function string
	tag      string
	errorC   string
}

func (p palette) styles() map[string]Style {
	return map[string]Style{
		DefaultType:   {AttrColor: p.text},
		"comment":     {AttrColor: p.muted, AttrItalic: "true"},
		"prolog":      {AttrColor: p.muted},
		"doctype":     {AttrColor: p.muted},
		"punctuation": {AttrColor: p.comma},
		"bracket":     {AttrColor: p.paren},
		"keyword":     {AttrColor: p.keyword},
		"atrule":      {AttrColor: p.keyword},
		"rule":        {AttrColor: p.keyword, AttrBold: "true"},
		"operator":    {AttrColor: p.operator},
		"property":    {AttrColor: p.field},
		"attr-name":   {AttrColor: p.field},
		"selector":    {AttrColor: p.function},
		"function":    {AttrColor: p.function},
		"builtin":     {AttrColor: p.function, AttrItalic: "true"},
		"tag":         {AttrColor: p.tag},
		"string":      {AttrColor: p.str},
		"char":        {AttrColor: p.str},
		"attr-value":  {AttrColor: p.str},
		"url":         {AttrColor: p.str, AttrUnderline: "true"},
		"regex":       {AttrColor: p.literal},
		"escape":      {AttrColor: p.literal, AttrBold: "true"},
		"number":      {AttrColor: p.literal},
		"boolean":     {AttrColor: p.literal},
		"constant":    {AttrColor: p.literal},
		"variable":    {AttrColor: p.field, AttrItalic: "true"},
		"important":   {AttrColor: p.errorC, AttrBold: "true"},
	}
}

// Presets contains all built-in theme presets.
var Presets = map[string]Preset{
	"default":          DefaultPreset,
	"catppuccin-mocha": CatppuccinMochaPreset,
	"catppuccin-latte": CatppuccinLattePreset,
	"dracula":          DraculaPreset,
	"nord":             NordPreset,
	"high-contrast":    HighContrastPreset,
}

// DefaultPreset is the quill color scheme for dark terminals.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Default quill theme",
	palette: palette{
		text:     "#CCCCCC",
		muted:    "#696969",
		keyword:  "#CBA6F7",
		operator: "#F38BA8",
		field:    "#94E2D5",
		str:      "#F9E2AF",
		literal:  "#FAB387",
		paren:    "#89B4FA",
		comma:    "#6C7086",
		function: "#54A0FF",
		tag:      "#73F59F",
		errorC:   "#FF8787",
	},
}

// CatppuccinMochaPreset is the Catppuccin Mocha (dark) theme.
var CatppuccinMochaPreset = Preset{
	Name:        "catppuccin-mocha",
	Description: "Catppuccin Mocha - warm dark theme",
	palette: palette{
		text:     "#CDD6F4", // text
		muted:    "#6C7086", // overlay0
		keyword:  "#CBA6F7", // mauve
		operator: "#F38BA8", // red
		field:    "#94E2D5", // teal
		str:      "#A6E3A1", // green
		literal:  "#FAB387", // peach
		paren:    "#89B4FA", // blue
		comma:    "#9399B2", // overlay2
		function: "#89B4FA", // blue
		tag:      "#F9E2AF", // yellow
		errorC:   "#F38BA8", // red
	},
}

// CatppuccinLattePreset is the Catppuccin Latte (light) theme.
var CatppuccinLattePreset = Preset{
	Name:        "catppuccin-latte",
	Description: "Catppuccin Latte - light theme",
	palette: palette{
		text:     "#4C4F69", // text
		muted:    "#9CA0B0", // overlay0
		keyword:  "#8839EF", // mauve
		operator: "#D20F39", // red
		field:    "#179299", // teal
		str:      "#40A02B", // green
		literal:  "#FE640B", // peach
		paren:    "#1E66F5", // blue
		comma:    "#7C7F93", // overlay2
		function: "#1E66F5", // blue
		tag:      "#DF8E1D", // yellow
		errorC:   "#D20F39", // red
	},
}

// DraculaPreset is the Dracula theme.
var DraculaPreset = Preset{
	Name:        "dracula",
	Description: "Dracula - dark theme with vibrant colors",
	palette: palette{
		text:     "#F8F8F2", // foreground
		muted:    "#6272A4", // comment
		keyword:  "#FF79C6", // pink
		operator: "#FF79C6", // pink
		field:    "#8BE9FD", // cyan
		str:      "#F1FA8C", // yellow
		literal:  "#BD93F9", // purple
		paren:    "#F8F8F2", // foreground
		comma:    "#F8F8F2", // foreground
		function: "#50FA7B", // green
		tag:      "#FF79C6", // pink
		errorC:   "#FF5555", // red
	},
}

// NordPreset is the Nord theme.
var NordPreset = Preset{
	Name:        "nord",
	Description: "Nord - arctic, north-bluish theme",
	palette: palette{
		text:     "#ECEFF4", // snow storm 3
		muted:    "#616E88", // polar night, brightened
		keyword:  "#81A1C1", // frost 3
		operator: "#81A1C1", // frost 3
		field:    "#8FBCBB", // frost 1
		str:      "#A3BE8C", // aurora green
		literal:  "#B48EAD", // aurora purple
		paren:    "#ECEFF4", // snow storm 3
		comma:    "#D8DEE9", // snow storm 1
		function: "#88C0D0", // frost 2
		tag:      "#81A1C1", // frost 3
		errorC:   "#BF616A", // aurora red
	},
}

// HighContrastPreset is for accessibility.
var HighContrastPreset = Preset{
	Name:        "high-contrast",
	Description: "High contrast for accessibility",
	palette: palette{
		text:     "#FFFFFF",
		muted:    "#C0C0C0", // still readable on black
		keyword:  "#FF00FF", // magenta
		operator: "#FFFF00", // yellow
		field:    "#00FFFF", // cyan
		str:      "#00FF00", // green
		literal:  "#FF8800", // orange
		paren:    "#FFFFFF",
		comma:    "#FFFFFF",
		function: "#00FFFF", // cyan
		tag:      "#FF00FF", // magenta
		errorC:   "#FF0000", // red
	},
}

// PresetNames returns the names of the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetTheme returns the theme of the named preset.
func PresetTheme(name string) (*Theme, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p.Theme(), nil
}
