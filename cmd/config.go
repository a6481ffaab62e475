package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	internalApp "github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/dao"
	"github.com/thingspace/thingspace-notes/pkg/fileurl"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/util"

	"go.uber.org/zap"
)

// defaultAuthTokenKey 内嵌配置里的占位密钥，首次写出配置时替换为随机值
const defaultAuthTokenKey = "thingspace-notes-auth-token"

const generatedConfigPath = "config/config.yaml"

// resolveConfigPath 查找配置文件
// 依次查找 config/config-dev.yaml、config.yaml、config/config.yaml，都不存在时写出默认配置
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if found := fileurl.FirstExisting("config/config-dev.yaml", "config.yaml", generatedConfigPath); found != "" {
		return found, nil
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	content := strings.Replace(configDefault, defaultAuthTokenKey, util.GetRandomString(32), 1)
	if err := fileurl.WriteNewFile(generatedConfigPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("config file auto create: %w", err)
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", generatedConfigPath))
	return generatedConfigPath, nil
}

// initStorageWithConfig 初始化存储目录
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path != ":memory:" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// openApp builds an App for one-shot commands (seed, token, mcp).
// fileOnlyLog keeps the logger off stdout.
func openApp(configFlag string, fileOnlyLog bool) (*internalApp.App, func(), error) {
	configPath, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, nil, err
	}
	cfg, _, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := initStorageWithConfig(cfg); err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Log
	if fileOnlyLog {
		logCfg.Production = true
		if logCfg.File == "" {
			logCfg.File = "storage/logs/log.log"
		}
	}
	lg, err := logger.NewLogger(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := dao.NewDBEngineWithConfig(cfg.Database, cfg.Server.RunMode == "debug")
	if err != nil {
		return nil, nil, fmt.Errorf("initDatabase: %w", err)
	}

	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			lg.Error("failed to shutdown app container", zap.Error(err))
		}
		_ = lg.Sync()
	}
	return a, cleanup, nil
}
