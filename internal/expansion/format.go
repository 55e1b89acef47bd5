package expansion

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/expkit/pkg/confbind"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write
const (
	OutputYAML  = "yaml"
	OutputJSONL = "jsonl"
	OutputTable = "table"
)

// Config is one expanded record with its position in the expansion.
// Index 0 is the base.
type Config struct {
	Index  int
	Record confbind.Record
}

// Configs numbers records in expansion order.
func Configs(records []confbind.Record) []Config {
	configs := make([]Config, len(records))
	for i, rec := range records {
		configs[i] = Config{Index: i, Record: rec}
	}
	return configs
}

// Label names the origin of the i-th expanded configuration.
func Label(i int) string {
	if i == 0 {
		return "base"
	}
	return fmt.Sprintf("delta %d", i)
}

// Write renders expanded records in the named output format.
func Write(w io.Writer, output string, configs []Config, source string) error {
	switch output {
	case OutputYAML:
		return FormatYAML(w, configs)
	case OutputJSONL:
		return FormatJSONL(w, configs)
	case OutputTable:
		FormatTable(w, configs, source)
		return nil
	default:
		return fmt.Errorf("unsupported output: %s (must be %s, %s or %s)", output, OutputYAML, OutputJSONL, OutputTable)
	}
}

// FormatYAML writes records as a multi-document YAML stream. Each document
// carries a head comment with its index and origin.
func FormatYAML(w io.Writer, configs []Config) error {
	if len(configs) == 0 {
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	for _, c := range configs {
		var node yaml.Node
		if err := node.Encode(c.Record.Interface()); err != nil {
			return fmt.Errorf("failed to encode config %d: %w", c.Index, err)
		}
		node.HeadComment = fmt.Sprintf("config %d (%s)", c.Index, Label(c.Index))

		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("failed to write YAML output: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write YAML output: %w", err)
	}
	return nil
}

// FormatJSONL writes one JSON object per config, in the order given.
// Keys are sorted, which keeps output diffable between runs.
func FormatJSONL(w io.Writer, configs []Config) error {
	for _, c := range configs {
		data, err := json.Marshal(c.Record.Interface())
		if err != nil {
			return fmt.Errorf("failed to marshal config %d to JSON: %w", c.Index, err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatTable writes a compact summary with one row per config.
// Returns the number of configs formatted.
func FormatTable(w io.Writer, configs []Config, source string) int {
	if len(configs) == 0 {
		fmt.Fprintf(w, "No configurations in '%s'\n", source)
		return 0
	}

	fmt.Fprintf(w, "Configurations in '%s':\n\n", source)
	fmt.Fprintf(w, "%-4s %-10s %s\n", "IDX", "ORIGIN", "FIELDS")
	fmt.Fprintf(w, "%-4s %-10s %s\n", "----", "----------", "------------------------------------------------------------")

	for _, c := range configs {
		fmt.Fprintf(w, "%-4d %-10s %s\n", c.Index, Label(c.Index), formatFields(c.Record))
	}

	noun := "configuration"
	if len(configs) != 1 {
		noun = "configurations"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(configs), noun)

	return len(configs)
}

// formatFields renders key=value pairs in key order, truncated to 60 chars.
func formatFields(rec confbind.Record) string {
	if len(rec) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(rec))
	for _, k := range rec.Keys() {
		parts = append(parts, k+"="+rec[k].GoString())
	}

	line := strings.Join(parts, " ")
	if len(line) > 60 {
		return line[:57] + "..."
	}
	return line
}
