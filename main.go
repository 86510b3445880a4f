/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 13:24:40
 * @LastEditors: 安知鱼
 */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/anzhiyu-c/anheyu-fm-console/cmd/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
