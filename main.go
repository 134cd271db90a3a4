package main

import (
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crowdsim-oss/task"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
)

var (
	// 配置文件路径，扩展名为.toml时按TOML解析，否则按YAML解析
	configPath = flag.String("config", "", "config file path (empty means built-in default config)")
	// 配置文件Base64编码后的数据（YAML）
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 可视化服务监听地址，非空时覆盖配置文件中的viewer.listen
	viewerAddr = flag.String("listen", "", "viewer websocket listening address, e.g. :8080")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "crowdsim")
)

// loadConfig 按命令行参数获取配置
func loadConfig() config.Config {
	switch {
	case *configPath != "":
		c, err := config.LoadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
		return c
	case *configData != "":
		file, err := base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
		c, err := config.Load(file, "yaml")
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
		return c
	default:
		log.Info("no config specified, use built-in default config")
		return config.Default()
	}
}

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	c := loadConfig()
	if *viewerAddr != "" {
		c.Viewer.Listen = *viewerAddr
	}
	log.Infof("%+v", c)

	t := task.NewContext(c)

	// Ctrl+C：在当前步结束后退出并释放资源
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Infof("receive %v, stopping", sig)
		t.Stop()
	}()

	t.Run()
}
