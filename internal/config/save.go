package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/render"
)

// SaveThemePreset sets theme.preset in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveThemePreset(configPath, preset string) error {
	if _, err := render.PresetTheme(preset); err != nil {
		return err
	}
	return saveValue(configPath, []string{"theme", "preset"}, scalarNode(preset))
}

// SaveThemeStyle sets one attribute of a token type under theme.styles.
func SaveThemeStyle(configPath, tokenType, attr, value string) error {
	if tokenType == "" || attr == "" {
		return fmt.Errorf("token type and attribute are required")
	}
	return saveValue(configPath, []string{"theme", "styles", tokenType, attr}, scalarNode(value))
}

// SaveCompletionAlgorithm sets completion.algorithm in the config file.
func SaveCompletionAlgorithm(configPath, algorithm string) error {
	alg, err := match.ParseAlgorithm(algorithm)
	if err != nil {
		return err
	}
	return saveValue(configPath, []string{"completion", "algorithm"}, scalarNode(alg.String()))
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// saveValue replaces the node at keys, creating intermediate mappings.
func saveValue(configPath string, keys []string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path is the user's config file
	if err != nil && !isNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("parsing config: unexpected document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	setPath(root, keys, value)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// setPath walks mapping nodes along keys. Missing keys are appended and
// non-mapping intermediates are replaced. The final node keeps the comments
// of the node it replaces.
func setPath(node *yaml.Node, keys []string, value *yaml.Node) {
	for i, key := range keys {
		last := i == len(keys)-1
		var child *yaml.Node
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				child = node.Content[j+1]
				break
			}
		}

		if child == nil {
			child = value
			if !last {
				child = &yaml.Node{Kind: yaml.MappingNode}
			}
			node.Content = append(node.Content, scalarNode(key), child)
			node = child
			continue
		}

		if last {
			value.HeadComment, value.LineComment, value.FootComment = child.HeadComment, child.LineComment, child.FootComment
			*child = *value
			return
		}
		if child.Kind != yaml.MappingNode {
			*child = yaml.Node{Kind: yaml.MappingNode, LineComment: child.LineComment}
		}
		node = child
	}
}

// writeAtomic writes to a temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".quill.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
