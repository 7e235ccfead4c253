package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codellm-devkit/callchain-go/internal/config"
	"github.com/codellm-devkit/callchain-go/internal/output"
	"github.com/codellm-devkit/callchain-go/pkg/schema"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func javaRoot(t *testing.T) string { return filepath.Join(repoRoot(t), "testdata", "javaapp") }
func goRoot(t *testing.T) string   { return filepath.Join(repoRoot(t), "sampleapp") }

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "callchain "+version+"\n", out)
}

func TestRun_SequenceJava(t *testing.T) {
	code, out, errOut := runCLI(t, "-q", "-i", javaRoot(t), "sequence", "OrderController#place")
	require.Equal(t, 0, code, errOut)

	assert.True(t, strings.HasPrefix(out, "@startuml\n"))
	assert.True(t, strings.HasSuffix(out, "@enduml\n"))
	assert.Contains(t, out, "title Call chain: OrderController.place")
	assert.Contains(t, out, `participant "OrderServiceImpl"`)
	assert.Contains(t, out, "external API")
	assert.Empty(t, errOut)
}

func TestRun_ActivityWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "callchain.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("language: java\n"), 0o644))

	code, out, errOut := runCLI(t, "-q", "-i", javaRoot(t), "--config", cfgPath, "activity", "OrderController#place")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "|OrderController|")
	assert.Contains(t, out, "detach")
}

func TestRun_TreeGo(t *testing.T) {
	code, out, errOut := runCLI(t, "-q", "-i", goRoot(t), "tree", "OrderController.Place")
	require.Equal(t, 0, code, errOut)

	var analysis schema.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, "go", analysis.Metadata.Language)
	assert.Equal(t, "OrderController.Place", analysis.Metadata.EntryMethod)
	assert.Equal(t, config.Default().MaxDepth, analysis.Metadata.MaxDepth)
	assert.NotEmpty(t, analysis.Metadata.ID)
	require.NotNil(t, analysis.Tree)
	assert.Equal(t, "Place", analysis.Tree.Name)
	assert.Greater(t, analysis.Stats.Nodes, 1)
	assert.Empty(t, analysis.Issues)
	assert.Empty(t, analysis.Tree.Source)
}

func TestRun_OutputDir(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, "-q", "-i", javaRoot(t), "-o", dir, "--max-depth", "2", "code", "OrderController#place")
	require.Equal(t, 0, code, errOut)
	assert.Empty(t, out)

	b, err := os.ReadFile(filepath.Join(dir, output.FileCode))
	require.NoError(t, err)
	assert.Contains(t, string(b), "// Class: com.shop.web.OrderController")
	assert.NotContains(t, string(b), "nextId", "depth 2 stops before the repository internals")
}

func TestRun_Methods(t *testing.T) {
	code, out, errOut := runCLI(t, "-q", "-i", javaRoot(t), "methods")
	require.Equal(t, 0, code, errOut)

	var list schema.MethodList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, "java", list.Language)
	var refs []string
	for _, m := range list.Methods {
		refs = append(refs, m.Ref)
	}
	assert.Contains(t, refs, "com.shop.web.OrderController#place(String, List<String>)")
}

func TestRun_LogLevels(t *testing.T) {
	args := []string{"-i", javaRoot(t), "--max-nodes", "2", "sequence", "OrderController#place"}

	code, _, errOut := runCLI(t, args...)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "level=INFO msg=\"loading sources\"")
	assert.Contains(t, errOut, "level=WARN msg=\"node limit reached, truncating call tree\"")

	code, _, errOut = runCLI(t, append([]string{"-q"}, args...)...)
	require.Equal(t, 0, code, errOut)
	assert.Empty(t, errOut, "quiet keeps only errors")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing method", []string{"-i", javaRoot(t), "sequence"}, 2},
		{"bad language", []string{"-i", javaRoot(t), "--lang", "cobol", "sequence", "A#b"}, 2},
		{"bad depth", []string{"-i", javaRoot(t), "--max-depth", "-1", "sequence", "A#b"}, 2},
		{"missing config", []string{"-i", javaRoot(t), "--config", "/does/not/exist.yml", "sequence", "A#b"}, 2},
		{"missing input", []string{"-i", "/does/not/exist", "sequence", "A#b"}, 2},
		{"unknown flag", []string{"--nope", "version"}, 2},
		{"unknown method", []string{"-q", "-i", javaRoot(t), "sequence", "OrderController#missing"}, 1},
		{"no sources", []string{"-q", "-i", javaRoot(t), "--lang", "java", "--only-pkg", "nothing", "methods"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code, errOut)
			assert.Contains(t, errOut, "[error] ")
		})
	}
}

func TestRun_ConfigInit(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, "-i", dir, "config", "init")
	require.Equal(t, 0, code, errOut)
	path := filepath.Join(dir, config.FileName)
	assert.Equal(t, path+"\n", out)

	cfg, err := config.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Patterns, cfg.Patterns)

	code, _, _ = runCLI(t, "-i", dir, "config", "init")
	assert.Equal(t, 2, code)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, config.LangJava, detectLanguage(javaRoot(t)))
	assert.Equal(t, config.LangGo, detectLanguage(goRoot(t)))
	assert.Equal(t, config.LangGo, detectLanguage(t.TempDir()))
}
