/*
 * @Description: 命令行入口
 * @Author: 安知鱼
 * @Date: 2026-10-19 13:02:17
 * @LastEditTime: 2026-10-19 13:02:17
 * @LastEditors: 安知鱼
 */
package console

import (
	"github.com/spf13/cobra"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/config"
)

// NewRootCmd 创建根命令，不带子命令时启动服务
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "anheyu-fm-console",
		Short: "电台内容采集与提交控制台",
		Long: `anheyu-fm-console 为电台内容表单提供图片采集、比例校验和向内容后端提交的 HTTP 接口。

不带子命令运行时启动服务。`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "ini 配置文件路径")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newRatioCheckCmd())
	cmd.AddCommand(newTokenCmd(&configPath))

	return cmd
}
