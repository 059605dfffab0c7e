package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	currentLevel = INFO
	initOnce     sync.Once
)

// ParseLevel 将配置中的级别字符串转换为 LogLevel，未知值回退到 INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// String 返回级别名称
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return "info"
	}
}

// Init 初始化日志系统，可重复调用，klog 只初始化一次
func Init(level string) {
	currentLevel = ParseLevel(level)

	initOnce.Do(func() {
		// client-go 内部日志同样输出到标准输出
		klog.InitFlags(nil)
		klog.SetOutput(os.Stdout)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	})

	Info("日志系统初始化完成，级别: %s", currentLevel)
}

// Debug 调试日志
func Debug(format string, args ...interface{}) {
	if currentLevel <= DEBUG {
		message := fmt.Sprintf("[DEBUG] "+format, args...)
		_ = log.Output(2, message)
		klog.V(4).Info(message)
	}
}

// Info 信息日志
func Info(format string, args ...interface{}) {
	if currentLevel <= INFO {
		_ = log.Output(2, fmt.Sprintf("[INFO] "+format, args...))
	}
}

// Warn 警告日志
func Warn(format string, args ...interface{}) {
	if currentLevel <= WARN {
		message := fmt.Sprintf("[WARN] "+format, args...)
		_ = log.Output(2, message)
		klog.Warning(message)
	}
}

// Error 错误日志
func Error(format string, args ...interface{}) {
	if currentLevel <= ERROR {
		message := fmt.Sprintf("[ERROR] "+format, args...)
		_ = log.Output(2, message)
		klog.Error(message)
	}
}
