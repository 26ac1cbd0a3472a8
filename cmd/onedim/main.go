package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"onedim/cmd/onedim/commands"
	"onedim/utils"
)

// 版本信息，构建时通过 ldflags 设置
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	log.Logger = utils.NewLogger(utils.LogConfig{Level: os.Getenv("ONEDIM_LOG_LEVEL"), Format: "auto"})

	// 中断信号取消求解，求解在牛顿迭代之间检查
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx, Version, Commit); err != nil {
		log.Error().Err(err).Msg("命令执行失败")
		os.Exit(1)
	}
}
