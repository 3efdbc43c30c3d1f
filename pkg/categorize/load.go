package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk category configuration.
//
// Categories are declared as a YAML mapping; declaration order is
// significant (it breaks score ties), so decoding goes through yaml.Node
// instead of a Go map, which would shuffle it.
type File struct {
	Categories       []Category
	FallbackCategory string
	FallbackColorID  string
	StopPhrases      []string
}

type categoryEntry struct {
	Keywords []string `yaml:"keywords"`
	ColorID  string   `yaml:"colorId"`
}

type fileDoc struct {
	Categories       yaml.Node `yaml:"categories"`
	FallbackCategory string    `yaml:"fallback_category"`
	FallbackColorID  string    `yaml:"fallback_colorId"`
	StopPhrases      []string  `yaml:"stop_phrases"`
}

// Load reads and validates a category configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return Parse(data)
}

// Parse decodes category configuration from YAML bytes.
func Parse(data []byte) (*File, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}

	f := &File{
		FallbackCategory: doc.FallbackCategory,
		FallbackColorID:  doc.FallbackColorID,
		StopPhrases:      doc.StopPhrases,
	}

	if doc.Categories.Kind == 0 {
		return f, nil
	}
	if doc.Categories.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("categories must be a mapping, got %v", doc.Categories.Tag)
	}

	// A yaml mapping node stores keys and values as alternating children.
	for i := 0; i+1 < len(doc.Categories.Content); i += 2 {
		keyNode := doc.Categories.Content[i]
		valNode := doc.Categories.Content[i+1]

		var entry categoryEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("category %q: %w", keyNode.Value, err)
		}
		if len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", keyNode.Value)
		}
		f.Categories = append(f.Categories, Category{
			Name:     keyNode.Value,
			Keywords: entry.Keywords,
			ColorID:  entry.ColorID,
		})
	}

	return f, nil
}
