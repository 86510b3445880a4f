/*
 * @Description: serve 子命令
 * @Author: 安知鱼
 * @Date: 2026-10-19 13:04:50
 * @LastEditTime: 2026-10-19 13:04:50
 * @LastEditors: 安知鱼
 */
package console

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anzhiyu-c/anheyu-fm-console/cmd/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Example: `  # 使用默认配置启动
  anheyu-fm-console serve

  # 指定配置文件
  anheyu-fm-console serve --config /etc/fm-console/conf.ini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	app, cleanup, err := server.NewApp(configPath)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return fmt.Errorf("应用初始化失败: %w", err)
	}
	defer cleanup()
	defer app.Stop()

	app.PrintBanner()

	if err := app.Run(); err != nil {
		return fmt.Errorf("应用运行失败: %w", err)
	}
	return nil
}
