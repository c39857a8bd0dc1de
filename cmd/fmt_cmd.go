package cmd

import (
	"bytes"

	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/dzjyyds666/userconf/pkg"
	"github.com/spf13/cobra"
)

type FmtParams struct {
	Write  bool   `json:"write"`  // 写回源文件
	Indent string `json:"indent"` // 缩进字符串
}

var fmtParams = &FmtParams{}

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Print a document in canonical form",
	Long: `Parse the document and print it again with one entry per line, nested
containers indented and strings quoted only where needed. Comments are not
preserved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: fmtRun,
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtParams.Write, "write", "w", false, "write result to the source file instead of stdout")
	fmtCmd.Flags().StringVar(&fmtParams.Indent, "indent", "\t", "indent string for nested containers")
	rootCmd.AddCommand(fmtCmd)
}

func fmtRun(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if err := checkInputExists(path); err != nil {
		return err
	}
	doc, err := loadDocument(cmd, path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := userconf.NewEncoder(&buf)
	enc.SetIndent(fmtParams.Indent)
	if err := enc.Encode(doc); err != nil {
		return err
	}

	out := "-"
	if fmtParams.Write && path != "-" {
		out = path
		logger.Info("rewriting document", "file", path)
	}
	return pkg.WriteOutput(out, buf.Bytes(), cmd.OutOrStdout())
}
