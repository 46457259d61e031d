// Package resource maps public resource types to vector collections.
package resource

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in resource types and their collections.
const (
	LearningPath   = "learning_path"
	LearningPaths  = "learning_paths"
	Reflection     = "reflection"
	ReflectionTree = "reflection_tree"
)

// Resolver resolves a resource type to a collection name.
type Resolver struct {
	mapping     map[string]string
	defaultType string
}

// DefaultMapping returns the built-in resource type enumeration.
func DefaultMapping() map[string]string {
	return map[string]string{
		LearningPath:   LearningPaths,
		LearningPaths:  LearningPaths,
		Reflection:     ReflectionTree,
		ReflectionTree: ReflectionTree,
	}
}

// NewResolver validates and creates a Resolver.
// The default type must be part of the mapping.
func NewResolver(mapping map[string]string, defaultType string) (Resolver, error) {
	if len(mapping) == 0 {
		return Resolver{}, fmt.Errorf("resource type mapping is empty")
	}
	for t, col := range mapping {
		if t == "" || col == "" {
			return Resolver{}, fmt.Errorf("resource type mapping has an empty entry (%q -> %q)", t, col)
		}
	}
	if _, ok := mapping[defaultType]; !ok {
		return Resolver{}, fmt.Errorf("default resource type %q is not mapped", defaultType)
	}
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return Resolver{mapping: m, defaultType: defaultType}, nil
}

// DefaultResolver returns the built-in resolver (default learning_path).
func DefaultResolver() Resolver {
	return Resolver{mapping: DefaultMapping(), defaultType: LearningPath}
}

// Resolve returns the collection for resourceType. Empty means the default type.
func (r Resolver) Resolve(resourceType string) (string, error) {
	if resourceType == "" {
		resourceType = r.defaultType
	}
	col, ok := r.mapping[resourceType]
	if !ok {
		return "", fmt.Errorf("unknown resource type %q (known: %s)", resourceType, strings.Join(r.Types(), ", "))
	}
	return col, nil
}

// Types returns the known resource types, sorted.
func (r Resolver) Types() []string {
	types := make([]string, 0, len(r.mapping))
	for t := range r.mapping {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
