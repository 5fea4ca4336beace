// =============================================================================
// SwarmFlow 主入口
// =============================================================================
// 多智能体协调核心的演示入口，串起编排、共识、记忆与两条控制回路
//
// 使用方法:
//
//	swarmflow run                        # 用内置示例 Agent 跑若干轮协调回路
//	swarmflow run --config config.yaml   # 指定配置文件
//	swarmflow run --task "..."           # 指定任务
//	swarmflow version                    # 显示版本信息
//
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/swarmflow"
	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/types"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCoordination(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// runCoordination 装配协调核心并连续执行若干轮回路
func runCoordination(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	task := fs.String("task", "summarize the latest swarm coordination results", "Task to orchestrate")
	rounds := fs.Int("rounds", 6, "Number of coordination rounds")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting SwarmFlow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	registry := agent.NewRegistry(logger)
	if len(cfg.Orchestrator.AgentNames) == 0 {
		cfg.Orchestrator.AgentNames = registerDemoAgents(registry, logger)
	}

	sys, err := swarmflow.NewSystem(cfg, registry, logger)
	if err != nil {
		logger.Fatal("failed to assemble system", zap.Error(err))
	}

	ctx := context.Background()
	for round := 0; round < *rounds; round++ {
		summary, rerr := sys.RunRound(ctx, *task)
		if rerr != nil {
			logger.Error("coordination round failed", zap.Int("round", round+1), zap.Error(rerr))
			continue
		}
		logger.Info("coordination round finished",
			zap.Int("round", round+1),
			zap.Int("failures", summary.Result.Failures()),
			zap.String("level", summary.Level),
			zap.Bool("mutated", summary.Mutated),
			zap.Int("memory_size", summary.MemorySize),
		)
	}

	logger.Info("SwarmFlow stopped",
		zap.Int("mutations", len(sys.Mutator.History())),
		zap.String("final_level", sys.Curriculum.CurrentLevel()),
	)
}

// registerDemoAgents 注册三个行为各异的演示 Agent，返回名字列表
func registerDemoAgents(registry *agent.Registry, logger *zap.Logger) []string {
	concise := agent.NewFuncAgent("concise", func(_ context.Context, tc types.TaskContext) (any, error) {
		return "summary: " + tc.Task(), nil
	}, nil)
	verbose := agent.NewFuncAgent("verbose", func(_ context.Context, tc types.TaskContext) (any, error) {
		return "detailed summary of the coordination results for task " + tc.Task(), nil
	}, nil)
	echo := agent.NewFuncAgent("echo", func(_ context.Context, tc types.TaskContext) (any, error) {
		return strings.ToUpper(tc.Task()), nil
	}, nil)

	for _, a := range []agent.Agent{concise, verbose, echo} {
		if err := registry.Register(a, agent.RoleWorker); err != nil {
			logger.Fatal("failed to register demo agent", zap.Error(err))
		}
	}
	return []string{"concise", "verbose", "echo"}
}

func printVersion() {
	fmt.Printf("SwarmFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`SwarmFlow - Multi-Agent Coordination Core

Usage:
  swarmflow <command> [options]

Commands:
  run       Run coordination rounds with the configured agents
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)
  --task <text>     Task to orchestrate
  --rounds <n>      Number of coordination rounds

Examples:
  swarmflow run
  swarmflow run --config /etc/swarmflow/config.yaml --task "rank the proposals"
  swarmflow version`)
}

// initLogger 按日志配置构建 zap logger
func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
