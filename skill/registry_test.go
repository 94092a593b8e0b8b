package skill

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/core"
)

func echoTool(name string) Tool {
	return NewFunctionTool(name, "echoes its input",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))

	sk, tool, err := r.Resolve("read_file")
	require.NoError(t, err)
	assert.Equal(t, "files", sk.Name())
	assert.Equal(t, "read_file", tool.Name())
}

func TestRegistryUnknownTool(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, _, err = r.Resolve("nope")
	var unknownErr *UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Tool)
}

func TestRegistryDuplicateSkill(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))

	err = r.Register(New("files", "other", "filesystem", echoTool("write_file")))
	var dupErr *DuplicateSkillError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "files", dupErr.Skill)
}

func TestRegistryDuplicateToolAcrossSkills(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read"))))

	err = r.Register(New("web", "web ops", "network", echoTool("read")))
	var dupErr *DuplicateToolError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "read", dupErr.Tool)
	assert.Equal(t, "files", dupErr.ExistingSkill)
	assert.Equal(t, "web", dupErr.Skill)
}

func TestRegistryWhitelistBlacklistExclusive(t *testing.T) {
	_, err := NewRegistry(func(o *RegistryOptions) {
		o.Policy = Policy{Whitelist: []string{"a"}, Blacklist: []string{"b"}}
	})
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRegistryWhitelist(t *testing.T) {
	r, err := NewRegistry(func(o *RegistryOptions) {
		o.Policy = Policy{Whitelist: []string{"files"}}
	})
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))
	require.NoError(t, r.Register(New("web", "web ops", "network", echoTool("fetch"))))

	enabled := r.ListEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "files", enabled[0].Name())

	_, _, err = r.Resolve("fetch")
	var unknownErr *UnknownToolError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestRegistryBlacklist(t *testing.T) {
	r, err := NewRegistry(func(o *RegistryOptions) {
		o.Policy = Policy{Blacklist: []string{"web"}}
	})
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))
	require.NoError(t, r.Register(New("web", "web ops", "network", echoTool("fetch"))))

	enabled := r.ListEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "files", enabled[0].Name())
}

func TestRegistryConfirmationPolicy(t *testing.T) {
	r, err := NewRegistry(func(o *RegistryOptions) {
		o.Policy = Policy{RequireConfirmation: []string{"delete_file", "shell"}}
	})
	require.NoError(t, err)

	require.NoError(t, r.Register(New("files", "file ops", "filesystem",
		echoTool("read_file"), echoTool("delete_file"))))
	require.NoError(t, r.Register(New("shell", "shell access", "system", echoTool("exec"))))

	assert.True(t, r.IsConfirmationRequired("delete_file"))
	assert.False(t, r.IsConfirmationRequired("read_file"))
	// Naming a skill gates all of its tools.
	assert.True(t, r.IsConfirmationRequired("exec"))
}

func TestRegistrySetEnabled(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))

	require.NoError(t, r.SetEnabled("files", false))
	_, _, err = r.Resolve("read_file")
	var unknownErr *UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Empty(t, r.ListEnabled())

	require.NoError(t, r.SetEnabled("files", true))
	_, _, err = r.Resolve("read_file")
	assert.NoError(t, err)

	err = r.SetEnabled("ghost", false)
	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRegistryConcurrentToggleAndResolve(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.Register(New("files", "file ops", "filesystem", echoTool("read_file"))))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(enabled bool) {
			defer wg.Done()
			_ = r.SetEnabled("files", enabled)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			// Either outcome is fine; the registry must never panic or
			// return a partial binding.
			sk, tool, err := r.Resolve("read_file")
			if err == nil {
				assert.NotNil(t, sk)
				assert.NotNil(t, tool)
			}
		}()
	}
	wg.Wait()
}

func TestRegistryEnabledToolsOrder(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.Register(New("b-skill", "second alphabetically", "x", echoTool("b1"), echoTool("b2"))))
	require.NoError(t, r.Register(New("a-skill", "first alphabetically", "x", echoTool("a1"))))

	tools := r.EnabledTools()
	require.Len(t, tools, 3)
	// Registration order wins, not lexical order.
	assert.Equal(t, "b1", tools[0].Name())
	assert.Equal(t, "b2", tools[1].Name())
	assert.Equal(t, "a1", tools[2].Name())
}
