package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
	"gopkg.in/yaml.v3"
)

// LoadCategoryMap reads a YAML document of the form
//
//	Transport: [uber, fuel]
//	Food: [groceries, pizza]
//
// and returns the categories in document order. An empty path returns the
// built-in default map.
func LoadCategoryMap(path string) (model.CategoryMap, error) {
	if path == "" {
		return model.DefaultCategoryMap(), nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read category map %s: %w", common.ErrMissingConfig, path, err)
	}

	categories, err := ParseCategoryMap(data)
	if err != nil {
		return nil, fmt.Errorf("category map %s: %w", path, err)
	}
	return categories, nil
}

// ParseCategoryMap decodes a category map document. The root must be a
// mapping of string to list of strings.
func ParseCategoryMap(data []byte) (model.CategoryMap, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %w", common.ErrInvalidConfig, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: category map is empty", common.ErrInvalidConfig)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: category map root must be a mapping", common.ErrInvalidConfig)
	}

	categories := make(model.CategoryMap, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return nil, fmt.Errorf("%w: category name at line %d must be a string", common.ErrInvalidConfig, key.Line)
		}
		if categories.Has(key.Value) {
			return nil, fmt.Errorf("%w: duplicate category %q", common.ErrInvalidConfig, key.Value)
		}

		var keywords []string
		switch value.Kind {
		case yaml.SequenceNode:
			keywords = make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
					return nil, fmt.Errorf("%w: category %q contains a non-string keyword at line %d",
						common.ErrInvalidConfig, key.Value, item.Line)
				}
				keywords = append(keywords, item.Value)
			}
		case yaml.ScalarNode:
			// "Category:" with no value.
			if value.Tag != "!!null" {
				return nil, fmt.Errorf("%w: category %q must map to a list of keywords", common.ErrInvalidConfig, key.Value)
			}
		default:
			return nil, fmt.Errorf("%w: category %q must map to a list of keywords", common.ErrInvalidConfig, key.Value)
		}

		categories = append(categories, model.CategoryKeywords{Name: key.Value, Keywords: keywords})
	}

	return categories, nil
}
