package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/skillmesh"
	"github.com/hupe1980/skillmesh/skill"
)

// registerBuiltins installs the baseline skills every CLI session gets. The
// policy in the config still decides which of them are enabled and which need
// confirmation.
func registerBuiltins(mesh *skillmesh.Mesh) error {
	clock := skill.New("clock", "Current date and time", "utility",
		skill.NewFunctionTool(
			"current_time",
			"Returns the current local date and time",
			map[string]any{"type": "object", "properties": map[string]any{}},
			func(context.Context, map[string]any) (any, error) {
				return time.Now().Format(time.RFC1123), nil
			},
		),
	)

	knowledge := skill.New("knowledge", "Persistent agent memory", "memory",
		skill.NewFunctionTool(
			"remember",
			"Stores a fact in long-term memory for later retrieval",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fact": map[string]any{"type": "string", "description": "The fact to store"},
				},
				"required": []string{"fact"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				fact, _ := args["fact"].(string)
				id, err := mesh.LongTerm().Add(ctx, fact, nil)
				if err != nil {
					return nil, err
				}
				return map[string]any{"stored": true, "id": id}, nil
			},
		),
		skill.NewFunctionTool(
			"recall",
			"Searches long-term memory for facts related to a query",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "What to look for"},
					"limit": map[string]any{"type": "number", "description": "Max results", "default": float64(4)},
				},
				"required": []string{"query"},
			},
			func(ctx context.Context, args map[string]any) (any, error) {
				query, _ := args["query"].(string)
				limit := 4
				if n, ok := args["limit"].(float64); ok && n > 0 {
					limit = int(n)
				}
				entries, err := mesh.LongTerm().Search(ctx, query, limit)
				if err != nil {
					return nil, err
				}
				facts := make([]string, len(entries))
				for i, e := range entries {
					facts[i] = e.Content
				}
				return facts, nil
			},
		),
	)

	files := skill.New("files", "Read-only access to the local filesystem", "filesystem",
		skill.NewFunctionTool(
			"read_file",
			"Reads a text file and returns its contents",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "File path to read"},
				},
				"required": []string{"path"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				path, _ := args["path"].(string)
				data, err := os.ReadFile(filepath.Clean(path))
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", path, err)
				}
				return string(data), nil
			},
		),
		skill.NewFunctionTool(
			"list_dir",
			"Lists the entries of a directory",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Directory path", "default": "."},
				},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				path, _ := args["path"].(string)
				if path == "" {
					path = "."
				}
				entries, err := os.ReadDir(filepath.Clean(path))
				if err != nil {
					return nil, fmt.Errorf("list %s: %w", path, err)
				}
				names := make([]string, len(entries))
				for i, e := range entries {
					names[i] = e.Name()
					if e.IsDir() {
						names[i] += "/"
					}
				}
				return names, nil
			},
		),
	)

	for _, s := range []skill.Skill{clock, knowledge, files} {
		if err := mesh.RegisterSkill(s); err != nil {
			return err
		}
	}
	return nil
}
