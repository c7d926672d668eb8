package main

import (
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/orda/app/orda/internal/conf"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "orda"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

var rootCmd = &cobra.Command{
	Use:   "orda",
	Short: "News impact analysis and investment simulation backend",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "app/orda/configs/config.yaml", "config path, eg: --conf config.yaml")
	rootCmd.AddCommand(serveCmd, pipelineCmd, catalogCmd, tokenCmd)
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger 包含时间戳、调用者信息、服务ID等上下文
func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
}

// loadBootstrap 读取配置文件，ORDA_ 前缀的环境变量可覆盖 ${KEY:default} 占位
func loadBootstrap() (*conf.Bootstrap, func(), error) {
	c := config.New(
		config.WithSource(
			env.NewSource("ORDA_"),
			file.NewSource(flagconf),
		),
	)
	if err := c.Load(); err != nil {
		c.Close()
		return nil, nil, err
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		c.Close()
		return nil, nil, err
	}
	return &bc, func() { c.Close() }, nil
}
