package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dzjyyds666/userconf/parse/userconf"
	"github.com/dzjyyds666/userconf/pkg"
	"github.com/spf13/cobra"
)

const defaultMaxSize = 8 << 20

type RootParams struct {
	Config     string `uc:"-"`           // 配置文件路径
	Verbose    bool   `uc:"verbose"`     // 输出调试日志
	MaxSize    int64  `uc:"max_size"`    // 输入文件大小上限
	StrictKeys bool   `uc:"strict_keys"` // 重复的key视为错误
	MaxDepth   int    `uc:"max_depth"`   // 最大嵌套层数, 0 使用默认值
}

// fileConfig mirrors RootParams for --config; nil fields were not set in the file.
type fileConfig struct {
	Verbose    *bool  `uc:"verbose"`
	MaxSize    *int64 `uc:"max_size"`
	StrictKeys *bool  `uc:"strict_keys"`
	MaxDepth   *int   `uc:"max_depth"`
}

var rootParams = &RootParams{}

var logger = slog.New(slog.DiscardHandler)

var rootCmd = &cobra.Command{
	Use:   "uc",
	Short: "uc is a tool for checking and converting Userconf documents.",
	Long: `uc reads Userconf configuration documents. It can validate them, print
them in canonical form, extract values, dump the value tree and convert
between Userconf, JSON, YAML and TOML.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootParams.Config, "config", "", "userconf file with defaults for these flags")
	rootCmd.PersistentFlags().BoolVarP(&rootParams.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Int64Var(&rootParams.MaxSize, "max-size", defaultMaxSize, "maximum input size in bytes (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVar(&rootParams.StrictKeys, "strict-keys", false, "reject duplicate keys")
	rootCmd.PersistentFlags().IntVar(&rootParams.MaxDepth, "max-depth", 0, "maximum nesting of records and arrays (0 = default, negative = unlimited)")
}

func setup(cmd *cobra.Command, args []string) error {
	if rootParams.Config != "" {
		if err := loadConfig(cmd, rootParams.Config); err != nil {
			return err
		}
	}

	level := slog.LevelInfo
	if rootParams.Verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	logger.Debug("uc starting", "command", cmd.Name(), "max_size", rootParams.MaxSize, "strict_keys", rootParams.StrictKeys)
	return nil
}

// loadConfig applies values from a config file to flags not set on the
// command line.
func loadConfig(cmd *cobra.Command, path string) error {
	data, err := pkg.ReadInput(path, defaultMaxSize)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := userconf.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	flags := cmd.Flags()
	if fc.Verbose != nil && !flags.Changed("verbose") {
		rootParams.Verbose = *fc.Verbose
	}
	if fc.MaxSize != nil && !flags.Changed("max-size") {
		rootParams.MaxSize = *fc.MaxSize
	}
	if fc.StrictKeys != nil && !flags.Changed("strict-keys") {
		rootParams.StrictKeys = *fc.StrictKeys
	}
	if fc.MaxDepth != nil && !flags.Changed("max-depth") {
		rootParams.MaxDepth = *fc.MaxDepth
	}
	return nil
}

func newParser() *userconf.Parser {
	return userconf.NewParser(userconf.Options{
		Logger:         logger,
		MaxInputLength: int(rootParams.MaxSize),
		StrictKeys:     rootParams.StrictKeys,
		MaxDepth:       rootParams.MaxDepth,
	})
}

// readInput reads path, or the command's input when path is "" or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return pkg.ReadLimited(cmd.InOrStdin(), "stdin", rootParams.MaxSize)
	}
	return pkg.ReadInput(path, rootParams.MaxSize)
}

func loadDocument(cmd *cobra.Command, path string) (*userconf.Record, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	return newParser().Parse(data)
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}

func checkInputExists(path string) error {
	if path == "" || path == "-" {
		return nil
	}
	exist, err := pkg.CheckFileExist(path)
	if err != nil {
		return fmt.Errorf("check file exist: %w", err)
	}
	if !exist {
		return fmt.Errorf("%s: input file not exist", path)
	}
	return nil
}
