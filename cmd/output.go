package cmd

import (
	"fmt"
	"io"
	"os"

	internalApp "github.com/haierkeys/folio-lifecycle-service/internal/app"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// printJSON writes v to the command output as indented JSON
// printJSON 以缩进 JSON 格式输出结果
func printJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// readJSONFile decodes a JSON document from path, "-" reads stdin
// readJSONFile 从文件读取 JSON，"-" 表示标准输入
func readJSONFile(cmd *cobra.Command, path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

type appRunner func(cmd *cobra.Command, a *internalApp.App, args []string) error

// withApp runs fn against a freshly opened application container
// withApp 打开应用容器并执行 fn
func withApp(fn appRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp()
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(cmd, a, args)
	}
}
