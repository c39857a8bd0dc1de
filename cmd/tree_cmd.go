package cmd

import (
	"fmt"

	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Print the value tree of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		_, err = fmt.Fprintln(cmd.OutOrStdout(), userconf.Dump(doc))
		return err
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
