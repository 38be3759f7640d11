package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"impact-maker-go/config"
	"impact-maker-go/infrastructure/logger"
	"impact-maker-go/infrastructure/monitor"
	"impact-maker-go/internal/journal"
	"impact-maker-go/sim"
)

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	cfg config.AppConfig

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor
	journal *journal.Journal

	runner *sim.Runner
	worker *runnerComponent

	metricsServer *http.Server

	lifecycle *LifecycleManager
}

// New 从配置文件创建 Container（环境变量可覆盖部署字段）
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(cfg), nil
}

// NewWithConfig 使用已加载的配置创建 Container
func NewWithConfig(cfg config.AppConfig) *Container {
	return &Container{
		cfg:       cfg,
		lifecycle: NewLifecycleManager(),
	}
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := config.Validate(c.cfg); err != nil {
		return err
	}
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}
	if err := c.buildRunner(); err != nil {
		c.closeInfrastructure()
		return fmt.Errorf("build runner failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built successfully",
		zap.String("env", c.cfg.Env),
		zap.Strings("symbols", c.runner.Engine.Symbols()),
		zap.Bool("hunter", c.runner.Hunter != nil))
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	monitorCfg := monitor.DefaultConfig()
	if c.cfg.Metrics.Namespace != "" {
		monitorCfg.Namespace = c.cfg.Metrics.Namespace
	}
	if c.cfg.Metrics.Subsystem != "" {
		monitorCfg.Subsystem = c.cfg.Metrics.Subsystem
	}
	c.monitor = monitor.New(monitorCfg)

	if c.cfg.Journal.Enabled {
		c.journal, err = journal.Open(c.cfg.Journal.Path)
		if err != nil {
			return err
		}
	}

	c.logger.Info("infrastructure built",
		zap.Bool("metrics", c.cfg.Metrics.Enabled),
		zap.Bool("journal", c.journal != nil))
	return nil
}

func (c *Container) buildRunner() error {
	r, err := sim.BuildRunner(c.cfg, sim.Deps{
		Logger:  c.logger,
		Monitor: c.monitor,
		Journal: c.journal,
	})
	if err != nil {
		return err
	}
	c.runner = r
	return nil
}

func (c *Container) registerLifecycleComponents() {
	if c.cfg.Metrics.Enabled {
		c.lifecycle.Register(&httpServerComponent{
			name:    "metrics_server",
			handler: c.monitor.Handler(),
			addr:    c.cfg.Metrics.Addr,
			logger:  c.logger,
			server:  &c.metricsServer,
		})
	}
	c.worker = &runnerComponent{runner: c.runner, logger: c.logger}
	c.lifecycle.Register(c.worker)
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started")
	return nil
}

// Run 启动全部组件，等待模拟结束或 ctx 取消，然后停止。
func (c *Container) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	select {
	case <-c.worker.Done():
	case <-ctx.Done():
	}
	stopErr := c.Stop()
	runErr := c.worker.Err()
	if stopErr != nil {
		return errors.Join(runErr, stopErr)
	}
	if ctx.Err() != nil && isCancellation(runErr) {
		return nil
	}
	return runErr
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}
	c.closeInfrastructure()
	return err
}

func (c *Container) closeInfrastructure() {
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			c.logger.Warn("close journal failed", zap.Error(err))
		}
		c.journal = nil
	}
	if c.logger != nil {
		_ = c.logger.Close()
	}
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

// Report 模拟结果
func (c *Container) Report(now time.Time) sim.Report {
	return c.runner.Report(now)
}

// Runner 已组装的模拟器
func (c *Container) Runner() *sim.Runner { return c.runner }

// Monitor 指标注册表所在的监控器
func (c *Container) Monitor() *monitor.Monitor { return c.monitor }

// Config 当前配置
func (c *Container) Config() config.AppConfig { return c.cfg }
