package hfsync

import (
	"fmt"
	"path"
	"strings"
)

// WeightPatterns is the built-in "weights" preset: shard and weight
// formats plus the config and tokenizer files a runtime needs alongside
// them.
var WeightPatterns = []string{
	// Weights / shards
	"*.safetensors", "*.bin", "*safetensors.index.json", "*bin.index.json",
	// Alt formats
	"*.onnx", "*.tflite", "*.gguf", "*.pt",
	// Core configs & tokenizer
	"config.json", "generation_config.json", "preprocessor_config.json",
	"tokenizer.json", "tokenizer.model", "spiece.model", "vocab.*", "merges.txt",
	"special_tokens_map.json",
}

// ParsePatternPolicy expands a policy string into a glob list.
// Accepted forms: "weights" (the preset), "all" (match everything), or a
// comma-separated glob list such as "*.safetensors,config.json".
// An empty string means "weights".
func ParsePatternPolicy(s string) ([]string, error) {
	switch strings.TrimSpace(s) {
	case "", "weights":
		return WeightPatterns, nil
	case "all":
		return []string{"*"}, nil
	}

	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("%w: bad glob %q: %v", ErrInvalidConfig, p, err)
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: pattern policy %q selects nothing", ErrInvalidConfig, s)
	}
	return patterns, nil
}

// selectEntries returns the entries whose path matches at least one
// pattern. Matching is case-sensitive shell-glob semantics (*, ?, bracket
// classes). A pattern without a separator also matches against the file's
// base name, so "*.safetensors" selects nested shards like
// "unet/model.safetensors".
func selectEntries(entries []FileEntry, patterns []string) []FileEntry {
	var selected []FileEntry
	for _, e := range entries {
		if matchAny(e.Path, patterns) {
			selected = append(selected, e)
		}
	}
	return selected
}

func matchAny(name string, patterns []string) bool {
	base := path.Base(name)
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
