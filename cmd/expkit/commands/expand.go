package commands

import (
	"errors"
	"fmt"

	"github.com/dyluth/expkit/internal/expansion"
	"github.com/dyluth/expkit/pkg/confbind"
	"github.com/spf13/cobra"
)

var (
	expandFormat string
	expandOutput string
	expandWhere  []string
)

var expandCmd = &cobra.Command{
	Use:   "expand FILE",
	Short: "Expand a multi-configuration document",
	Long: `Expand a multi-configuration document into one record per configuration.

The document must contain a "base" mapping and may contain a "deltas" list of
mappings. The first record is the base; each following record is the base with
one delta overlaid (top-level keys of the delta win).

Output Formats:
  yaml  - Multi-document YAML, each document labelled with its origin
  jsonl - One JSON object per line
  table - Compact summary, one row per configuration

Filters (--where key=glob, repeatable) keep only configurations whose field
matches the glob; configurations keep their original index.

Examples:
  # Expand a YAML sweep
  expkit expand sweep.yaml

  # Expand an extensionless file as TOML and pipe to jq
  expkit expand sweep --format toml --output jsonl | jq .lr

  # Only the configurations with a small learning rate
  expkit expand sweep.yaml --where 'lr=0.0*' --output table`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringVarP(&expandFormat, "format", "f", "", "Document format (yaml, toml, hcl, json); inferred from extension if omitted")
	expandCmd.Flags().StringVarP(&expandOutput, "output", "o", expansion.OutputYAML, "Output format (yaml, jsonl or table)")
	expandCmd.Flags().StringArrayVarP(&expandWhere, "where", "w", nil, "Keep configurations where key matches glob (key=glob, repeatable)")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)
	path := args[0]

	switch expandOutput {
	case expansion.OutputYAML, expansion.OutputJSONL, expansion.OutputTable:
	default:
		return out.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", expandOutput),
			[]string{"Valid formats: yaml, jsonl, table"},
		)
	}

	criteria, err := expansion.ParseCriteria(expandWhere)
	if err != nil {
		return out.Error("invalid filter", err.Error(), []string{"Filters look like --where lr=0.0* --where name=deep"})
	}

	rec, err := loadDocument(path)
	if err != nil {
		var docErr *confbind.DocumentParseError
		if errors.As(err, &docErr) {
			return out.ErrorWithContext(
				"failed to parse document",
				docErr.Err.Error(),
				map[string]string{"File": path, "Format": string(docErr.Format)},
				nil,
			)
		}
		return out.Error("failed to load document", err.Error(), []string{"Pass --format when the file has no recognised extension"})
	}

	multi, err := confbind.ParseMulti(rec)
	if err != nil {
		return out.ErrorWithContext(
			"not a multi-configuration document",
			err.Error(),
			map[string]string{"File": path},
			[]string{fmt.Sprintf("Add a top-level %q mapping and an optional %q list", confbind.BaseKey, confbind.DeltasKey)},
		)
	}

	configs := criteria.Select(expansion.Configs(multi.Expand()))
	if criteria.HasFilters() && len(configs) == 0 {
		out.Warning("no configurations match %s\n", criteria)
	}

	return expansion.Write(cmd.OutOrStdout(), expandOutput, configs, path)
}

func loadDocument(path string) (confbind.Record, error) {
	if expandFormat == "" {
		return confbind.LoadRecord(path)
	}
	format, err := confbind.ParseFormat(expandFormat)
	if err != nil {
		return nil, err
	}
	return confbind.LoadRecordAs(path, format)
}
