package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	internalApp "github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/dao"
	"github.com/thingspace/thingspace-notes/internal/routers"
	"github.com/thingspace/thingspace-notes/internal/task"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/safe_close"
	"github.com/thingspace/thingspace-notes/pkg/tracer"
	"github.com/thingspace/thingspace-notes/pkg/validator"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultSecretKeys 需要检测的默认密钥列表
var defaultSecretKeys = []string{
	defaultAuthTokenKey,
	"",
}

type Server struct {
	logger            *zap.Logger            // 日志对象
	config            *internalApp.AppConfig // 应用配置
	db                *gorm.DB               // 数据库连接
	ut                *ut.UniversalTranslator
	httpServer        *http.Server
	privateHttpServer *http.Server
	tracerCloser      io.Closer
	sc                *safe_close.SafeClose
	app               *internalApp.App // App Container
}

// checkSecurityConfigWithConfig 检查安全配置，如果使用默认密钥则输出警告
func checkSecurityConfigWithConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	for _, key := range defaultSecretKeys {
		if cfg.Security.AuthTokenKey != key {
			continue
		}
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("SECURITY WARNING: Using default secret key!")
		fmt.Println()
		fmt.Println("Please modify 'security.auth-token-key' in config.yaml")
		fmt.Println("Generate a secure key with:")
		fmt.Println("  openssl rand -base64 32")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()
		lg.Warn("Using default secret key - please change security.auth-token-key in config.yaml")
		return
	}
}

func NewServer(runEnv *runFlags) (*Server, error) {
	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 命令行参数优先于配置文件
	if runEnv.runMode != "" {
		appConfig.Server.RunMode = runEnv.runMode
	}
	if runEnv.port != "" {
		appConfig.Server.HttpPort = runEnv.port
		if !strings.Contains(runEnv.port, ":") {
			appConfig.Server.HttpPort = ":" + runEnv.port
		}
	}
	runMode := appConfig.Server.RunMode
	if runMode != "" {
		gin.SetMode(runMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	lg, err := logger.NewLogger(appConfig.Log)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}
	s.logger = lg

	checkSecurityConfigWithConfig(appConfig, s.logger)

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	db, err := dao.NewDBEngineWithConfig(appConfig.Database, runMode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}
	s.db = db

	s.tracerCloser, err = tracer.Setup(appConfig.Tracer.Enabled, tracer.Config{
		ServiceName:  appConfig.Tracer.ServiceName,
		AgentHost:    appConfig.Tracer.AgentHost,
		SamplerType:  appConfig.Tracer.SamplerType,
		SamplerParam: appConfig.Tracer.SamplerParam,
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("initTracer: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, s.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app

	uni, err := validator.NewTranslator(validator.RegisterCustom())
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	initScheduler(s)

	banner := `
  _______ _     _                ____                       _   _       _
 |__   __| |   (_)              / ___| _ __   __ _  ___ ___| \ | | ___ | |_ ___  ___
    | |  | |__  _ _ __   __ _   \___ \| '_ \ / _' |/ __/ _ \  \| |/ _ \| __/ _ \/ __|
    | |  | '_ \| | '_ \ / _' |   ___) | |_) | (_| | (_|  __/ |\  | (_) | ||  __/\__ \
    |_|  |_| |_|_|_| |_|\__, |  |____/| .__/ \__,_|\___\___|_| \_|\___/ \__\___||___/
                         __/ |        |_|
                        |___/`
	s.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	// 启动 HTTP API 服务器
	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    appConfig.Server.ReadTimeout,
			WriteTimeout:   appConfig.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("api service", s.httpServer)
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("private_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouterWithLogger(runMode, appConfig.Server.PrivateAuthToken, s.logger),
			ReadTimeout:    appConfig.Server.ReadTimeout,
			WriteTimeout:   appConfig.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("private api service", s.privateHttpServer)
	}

	// 注册 App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
		if err := s.tracerCloser.Close(); err != nil {
			s.logger.Warn("tracer close error", zap.Error(err))
		}
	})

	return s, nil
}

// serve 启动 HTTP 服务器，并在关闭信号到达时优雅停止
func (s *Server) serve(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	manager := task.NewManager(s.logger, s.sc, s.app)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}
	manager.Start()
}

// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}

// GetConfig 获取应用配置
func (s *Server) GetConfig() *internalApp.AppConfig {
	return s.config
}
