// slidectl 离线回放录制的标记流，或把完整标记导出为 PPTX
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/logger"
)

var (
	rootCmd = &cobra.Command{
		Use:           "slidectl",
		Short:         "Replay and export streamed slide markup",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 方言等解析配置与服务端共用
			if err := config.Init(configFile); err != nil {
				return err
			}
			if verbose {
				config.Set("log.console", true)
				config.Set("log.level", "debug")
				logger.Init()
			}
			return nil
		},
	}
	configFile string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to the config file (parser dialect, export options)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to the console")

	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newExportCmd())
}
