package expansion

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dyluth/expkit/pkg/confbind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sweep(t *testing.T) []Config {
	t.Helper()
	multi, err := confbind.ParseMulti(confbind.Record{
		"base": confbind.Map(map[string]confbind.Value{
			"lr":     confbind.Float(0.1),
			"layers": confbind.Int(2),
		}),
		"deltas": confbind.List(
			confbind.Map(map[string]confbind.Value{"lr": confbind.Float(0.01)}),
			confbind.Map(map[string]confbind.Value{"layers": confbind.Int(4), "name": confbind.String("deep")}),
		),
	})
	require.NoError(t, err)
	return Configs(multi.Expand())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "base", Label(0))
	assert.Equal(t, "delta 2", Label(2))
}

func TestFormatJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSONL(&buf, sweep(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"layers":2,"lr":0.1}`, lines[0])
	assert.Equal(t, `{"layers":2,"lr":0.01}`, lines[1])
	assert.Equal(t, `{"layers":4,"lr":0.1,"name":"deep"}`, lines[2])

	for _, line := range lines {
		var m map[string]any
		assert.NoError(t, json.Unmarshal([]byte(line), &m))
	}
}

func TestFormatYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatYAML(&buf, sweep(t)))

	out := buf.String()
	assert.Contains(t, out, "# config 0 (base)")
	assert.Contains(t, out, "# config 2 (delta 2)")

	dec := yaml.NewDecoder(strings.NewReader(out))
	var docs []map[string]any
	for {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			break
		}
		docs = append(docs, m)
	}
	require.Len(t, docs, 3)
	assert.Equal(t, 0.01, docs[1]["lr"])
	assert.Equal(t, "deep", docs[2]["name"])

	buf.Reset()
	require.NoError(t, FormatYAML(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestFormatTable(t *testing.T) {
	t.Run("rows per record", func(t *testing.T) {
		var buf bytes.Buffer
		n := FormatTable(&buf, sweep(t), "sweep.yaml")
		assert.Equal(t, 3, n)

		out := buf.String()
		assert.Contains(t, out, "Configurations in 'sweep.yaml'")
		assert.Contains(t, out, "delta 1")
		assert.Contains(t, out, `layers=4 lr=0.1 name="deep"`)
		assert.Contains(t, out, "3 configurations")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, 0, FormatTable(&buf, nil, "x.yaml"))
		assert.Equal(t, "No configurations in 'x.yaml'\n", buf.String())
	})

	t.Run("long rows are truncated", func(t *testing.T) {
		rec := confbind.Record{"k": confbind.String(strings.Repeat("x", 100))}
		assert.Len(t, formatFields(rec), 60)
		assert.Equal(t, "-", formatFields(confbind.Record{}))
	})
}

func TestFormat_KeepsOriginalIndex(t *testing.T) {
	configs := sweep(t)[2:]

	var buf bytes.Buffer
	require.NoError(t, FormatYAML(&buf, configs))
	assert.Contains(t, buf.String(), "# config 2 (delta 2)")
	assert.NotContains(t, buf.String(), "config 0")

	buf.Reset()
	FormatTable(&buf, configs, "sweep.yaml")
	assert.Contains(t, buf.String(), "2    delta 2")
	assert.Contains(t, buf.String(), "1 configuration\n")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "xml", sweep(t), "sweep.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output")

	buf.Reset()
	require.NoError(t, Write(&buf, OutputJSONL, sweep(t), "sweep.yaml"))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}
