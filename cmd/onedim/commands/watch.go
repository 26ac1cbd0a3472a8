package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"onedim/utils"
)

// watchDelay 同一次保存常触发多个事件，合并后再求解
const watchDelay = 200 * time.Millisecond

func newWatchCommand() *cobra.Command {
	var (
		f     solveFlags
		count int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "配置文件变化时重新求解",
		Long: `先按配置求解一次，之后每当配置文件被写入就重新构建并求解。
求解失败只记录日志，不退出。`,
		Example: `  onedim watch -c stack.yaml --print`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.levelSet = cmd.Flags().Changed("log-level")
			return watch(cmd.Context(), f, count, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many solves (0 runs until interrupted)")

	return cmd
}

// watch 监视配置文件所在目录，编辑器常以重命名方式保存，只监视文件会丢失后续事件
func watch(ctx context.Context, f solveFlags, count int, out, errOut io.Writer) error {
	path, err := filepath.Abs(f.configPath)
	if err != nil {
		return err
	}
	log := utils.NewLogger(utils.LogConfig{Level: "info", Format: "auto", Output: errOut})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	runs := 0
	solve := func() bool {
		runs++
		if err := runSolve(ctx, f, out, errOut); err != nil {
			log.Error().Err(err).Int("run", runs).Msg("求解失败")
			fmt.Fprintf(out, "solve #%d: %v\n", runs, err)
		} else {
			fmt.Fprintf(out, "solve #%d: ok\n", runs)
		}
		return count > 0 && runs >= count
	}
	if solve() {
		return nil
	}
	log.Info().Str("file", path).Msg("监视配置文件")

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("runs", runs).Msg("停止监视")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("配置文件变化")
			timer.Reset(watchDelay)

		case <-timer.C:
			if solve() {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}
