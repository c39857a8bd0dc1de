package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dzjyyds666/userconf/parse"
	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/dzjyyds666/userconf/pkg"
	"github.com/spf13/cobra"
)

type ConvertParams struct {
	Input  string `json:"input"`  // 输入文件路径
	From   string `json:"from"`   // 输入格式, 默认按扩展名推断
	To     string `json:"to"`     // 输出格式
	Output string `json:"output"` // 输出文件地址
}

var convertParams = &ConvertParams{}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between Userconf, JSON, YAML and TOML",
	Long: `Convert a document between formats. Userconf values are all strings,
so numbers and booleans read from other formats become their text form.`,
	RunE: convertRun,
}

func init() {
	convertCmd.Flags().StringVarP(&convertParams.Input, "input", "i", "", "input file path (- for stdin)")
	convertCmd.Flags().StringVar(&convertParams.From, "from", "", "input format: uc, json, yaml, toml (default from extension)")
	convertCmd.Flags().StringVarP(&convertParams.To, "to", "t", "json", "output format: uc, json, yaml, toml")
	convertCmd.Flags().StringVarP(&convertParams.Output, "output", "o", "", "output path")
	rootCmd.AddCommand(convertCmd)
}

func convertRun(cmd *cobra.Command, args []string) error {
	if len(convertParams.Input) == 0 {
		return fmt.Errorf("no input file path")
	}
	if err := checkInputExists(convertParams.Input); err != nil {
		return err
	}

	from, err := inputFormat(convertParams.Input, convertParams.From)
	if err != nil {
		return err
	}
	to, err := parse.ParseFormat(convertParams.To)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, convertParams.Input)
	if err != nil {
		return err
	}
	doc, err := importDocument(data, from)
	if err != nil {
		return err
	}
	out, err := parse.Convert(doc, to)
	if err != nil {
		return err
	}
	logger.Debug("document converted", "from", from, "to", to, "bytes", len(out))
	return pkg.WriteOutput(convertParams.Output, out, cmd.OutOrStdout())
}

// inputFormat prefers an explicit --from, then the file extension, then
// Userconf.
func inputFormat(path, explicit string) (parse.Format, error) {
	if explicit != "" {
		return parse.ParseFormat(explicit)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return parse.Formats.Userconf, nil
	}
	if f, err := parse.ParseFormat(ext); err == nil {
		return f, nil
	}
	return parse.Formats.Userconf, nil
}

// importDocument parses Userconf with the configured parser so --strict-keys
// and the size budget apply.
func importDocument(data []byte, f parse.Format) (*userconf.Record, error) {
	if f == parse.Formats.Userconf {
		return newParser().Parse(data)
	}
	return parse.Import(data, f)
}
