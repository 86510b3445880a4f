/*
 * @Description: token 子命令，为操作员签发访问令牌
 * @Author: 安知鱼
 * @Date: 2026-10-19 13:20:06
 * @LastEditTime: 2026-10-19 13:20:06
 * @LastEditors: 安知鱼
 */
package console

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/config"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		operator string
		facility string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "使用 Auth.JWTSecret 为操作员签发访问令牌",
		Example: `  anheyu-fm-console token --operator alice --facility north-wing --ttl 8h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromFile(*configPath)
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(operator, facility, []byte(cfg.GetString(config.KeyAuthJWTSecret)), ttl)
			if err != nil {
				return fmt.Errorf("签发令牌失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&operator, "operator", "o", "", "操作员名称")
	cmd.Flags().StringVar(&facility, "facility", "", "所属机构")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "令牌有效期")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}
