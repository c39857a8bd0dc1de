package cmd

import (
	"errors"
	"fmt"

	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Validate Userconf documents",
	Long: `Parse each file and report the first error in it as
file:line:column: kind: message. Reads stdin when no file is given.`,
	RunE: checkRun,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	st := newStyles(cmd.OutOrStdout())

	failed := 0
	for _, path := range args {
		if !checkFile(cmd, st, path) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents invalid", errCheckFailed, failed, len(args))
	}
	return nil
}

// checkFile parses one document and prints its status line.
func checkFile(cmd *cobra.Command, st styles, path string) bool {
	w := cmd.OutOrStdout()
	name := displayName(path)
	doc, err := loadDocument(cmd, path)
	if err != nil {
		logger.Debug("document invalid", "file", name, "error", err)
		fmt.Fprintln(w, diagnostic(st, name, err))
		return false
	}
	logger.Debug("document valid", "file", name, "keys", doc.Len())
	fmt.Fprintf(w, "%s: %s\n", st.file.Render(name), st.ok.Render("ok"))
	return true
}

// diagnostic formats err as file:line:column: kind: message when it carries a
// position.
func diagnostic(st styles, name string, err error) string {
	kind, line, col, ok := userconf.ErrorPosition(err)
	if !ok {
		return fmt.Sprintf("%s: %s", st.file.Render(name), err)
	}
	return fmt.Sprintf("%s%s %s %s",
		st.file.Render(name),
		st.pos.Render(fmt.Sprintf(":%d:%d:", line, col)),
		st.kind.Render(kind.String()+":"),
		errorMessage(err))
}

func errorMessage(err error) string {
	var le *userconf.LexError
	if errors.As(err, &le) {
		return le.Msg
	}
	var pe *userconf.ParseError
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return err.Error()
}
