package cmd

import (
	"fmt"

	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/dzjyyds666/userconf/pkg"
	"github.com/spf13/cobra"
)

type GetParams struct {
	Find   string `json:"find"`   // 查找的key, 例如 server.listen.0
	Input  string `json:"input"`  // 输入文件路径
	Output string `json:"output"` // 输出文件地址
}

var getParams = &GetParams{}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the value at a dotted path",
	Long: `Print the value found at a dotted path such as server.listen.0.
Strings are printed as is; records and arrays are printed as Userconf.`,
	RunE: getRun,
}

func init() {
	getCmd.Flags().StringVarP(&getParams.Find, "find", "f", "", `dotted path of the value, e.g. hosts."example.com".port; empty for the whole document`)
	getCmd.Flags().StringVarP(&getParams.Input, "input", "i", "", "input file path (- for stdin)")
	getCmd.Flags().StringVarP(&getParams.Output, "output", "o", "", "output path")
	rootCmd.AddCommand(getCmd)
}

func getRun(cmd *cobra.Command, args []string) error {
	if len(getParams.Input) == 0 {
		return fmt.Errorf("no input file path")
	}
	if err := checkInputExists(getParams.Input); err != nil {
		return err
	}
	doc, err := loadDocument(cmd, getParams.Input)
	if err != nil {
		return err
	}

	v, ok := userconf.Lookup(doc, getParams.Find)
	if !ok {
		return fmt.Errorf("%s: path %q not found", displayName(getParams.Input), getParams.Find)
	}
	logger.Debug("value found", "path", getParams.Find, "kind", v.Kind())

	var out []byte
	switch x := v.(type) {
	case userconf.String:
		out = []byte(x.Text + "\n")
	case *userconf.Record:
		out, err = userconf.Marshal(x)
	default:
		out, err = userconf.MarshalValue(x)
	}
	if err != nil {
		return err
	}
	return pkg.WriteOutput(getParams.Output, out, cmd.OutOrStdout())
}
