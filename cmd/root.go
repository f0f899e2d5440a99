package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/haierkeys/folio-lifecycle-service/pkg/code"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	dir    string // Working directory // 工作目录
	config string // Specified configuration file path // 指定要使用的配置文件路径
}

var configDefault string
var globalFlags = new(rootFlags)

var rootCmd = &cobra.Command{
	Use:           "folio-lifecycle-service",
	Short:         "Portfolio document lifecycle engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&globalFlags.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&globalFlags.config, "config", "c", "", "config file")
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		var ec *code.Code
		if errors.As(err, &ec) {
			fmt.Fprintf(os.Stderr, "[%s %d] %s\n", ec.Kind(), ec.Code(), ec.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
