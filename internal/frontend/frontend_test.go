package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lang/lumina/internal/config"
	"github.com/lumina-lang/lumina/internal/diagnostics"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	return cfg
}

func TestRunFullPipeline(t *testing.T) {
	p, err := New(defaultConfig(t))
	require.NoError(t, err)

	out, err := p.Run("main.lum", "var x = 5;\nprint(x);")
	require.NoError(t, err)
	assert.True(t, out.Success(), out.Collector.Format())
	require.NotNil(t, out.CST)
	require.NotNil(t, out.AST)
	require.NotNil(t, out.Check)
	assert.True(t, out.Check.Success)
	assert.Len(t, out.AST.Statements, 2)
}

func TestRunDirectASTMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Mode = "direct-ast"
	p, err := New(cfg)
	require.NoError(t, err)

	out, err := p.Run("main.lum", "var x = 5;")
	require.NoError(t, err)
	assert.Nil(t, out.CST, "direct mode produces no CST")
	require.NotNil(t, out.AST)
	require.NotNil(t, out.Check, "the checker still runs on the direct AST")
}

func TestRunCSTOnlyMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Mode = "cst"
	p, err := New(cfg)
	require.NoError(t, err)

	src := "var x = 5; // keep me\n"
	out, err := p.Run("main.lum", src)
	require.NoError(t, err)
	require.NotNil(t, out.CST)
	assert.Nil(t, out.AST, "cst mode skips lowering")
	assert.Equal(t, src, out.CST.ReconstructSource())
}

func TestMemoryViolationSurfacesInOutput(t *testing.T) {
	p, err := New(defaultConfig(t))
	require.NoError(t, err)

	out, err := p.Run("main.lum", "var x = 5;\nvar y = x;\nvar z = x;")
	require.NoError(t, err)
	assert.False(t, out.Success())
	require.NotNil(t, out.Check)
	assert.False(t, out.Check.Success)
	assert.Len(t, out.Collector.ByStage(diagnostics.StageMemory), 1)
}

func TestVersionGateBlocksPipeline(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.MinFrontend = ">= 99.0.0"
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_frontend")
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.lum")
	require.NoError(t, os.WriteFile(path, []byte("var x = 1;"), 0o644))

	p, err := New(defaultConfig(t))
	require.NoError(t, err)
	out, err := p.RunFile(path)
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, path, out.Filename)

	_, err = p.RunFile(filepath.Join(t.TempDir(), "missing.lum"))
	require.Error(t, err)
}

func TestErrorsAreBoundedByConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.MaxErrors = 3
	p, err := New(cfg)
	require.NoError(t, err)

	out, err := p.Run("main.lum", "@ @ @ @ @ @ @ @ @ @;")
	require.NoError(t, err)
	assert.False(t, out.Success())
	assert.LessOrEqual(t, out.Collector.ErrorCount(), 3)
}
