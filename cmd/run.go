package cmd

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	internalApp "github.com/thingspace/thingspace-notes/internal/app"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir     string // 项目根目录
	port    string // 启动端口
	runMode string // 启动模式
	config  string // 指定要使用的配置文件路径
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p port]",
		Short: "Run service",
		Run: func(cmd *cobra.Command, args []string) {
			if len(runEnv.dir) > 0 {
				if err := os.Chdir(runEnv.dir); err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
					return
				}
				bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
			}

			configPath, err := resolveConfigPath(runEnv.config)
			if err != nil {
				bootstrapLogger.Error("config resolve err", zap.Error(err))
				return
			}
			runEnv.config = configPath

			first, err := NewServer(runEnv)
			if err != nil {
				bootstrapLogger.Error("api service start err", zap.Error(err))
				return
			}
			var current atomic.Pointer[Server]
			current.Store(first)

			go watchConfig(runEnv, &current)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			sig := <-quit

			s := current.Load()
			if sig == syscall.SIGHUP {
				s.logger.Info("Received SIGHUP, restarting process...")
			} else {
				s.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			}
			s.sc.SendCloseSignal(nil)

			// 等待所有关闭处理器完成（包括 App Container 的优雅关闭）
			if err := s.sc.WaitClosed(); err != nil {
				s.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				s.logger.Info("Service has been shut down gracefully.")
			}

			if sig == syscall.SIGHUP {
				executable, err := os.Executable()
				if err != nil {
					s.logger.Error("Failed to locate executable", zap.Error(err))
					return
				}
				if err := internalApp.RestartProcess(executable, os.Args, os.Environ()); err != nil {
					s.logger.Error("Failed to restart process", zap.Error(err))
				}
			}
		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&runEnv.port, "port", "p", "", "run port")
	fs.StringVarP(&runEnv.runMode, "mode", "m", "", "run mode")
	fs.StringVarP(&runEnv.config, "config", "c", "", "config file")
}

// watchConfig 监听配置文件，写入后关闭旧服务并重新初始化
func watchConfig(runEnv *runFlags, current *atomic.Pointer[Server]) {
	w := watcher.New()

	// 每个监听周期至多接收 1 个事件
	w.SetMaxEvents(1)
	// 只通知写入事件
	w.FilterOps(watcher.Write)

	go func() {
		for {
			select {
			case event := <-w.Event:
				old := current.Load()
				old.logger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
				old.sc.SendCloseSignal(nil)
				if err := old.sc.WaitClosed(); err != nil {
					old.logger.Warn("previous server closed with error", zap.Error(err))
				}

				// 重新初始化 server
				s, err := NewServer(runEnv)
				if err != nil {
					bootstrapLogger.Error("service restart err", zap.Error(err))
					continue
				}
				current.Store(s)
			case err := <-w.Error:
				current.Load().logger.Error("config watcher error", zap.Error(err))
			case <-w.Closed:
				bootstrapLogger.Info("config watcher closed")
				return
			}
		}
	}()

	if err := w.Add(runEnv.config); err != nil {
		current.Load().logger.Error("config watcher file error", zap.Error(err))
		return
	}
	if err := w.Start(time.Second * 5); err != nil {
		current.Load().logger.Error("config watcher start error", zap.Error(err))
	}
}
