package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/guabee/multidb/util"
	log "github.com/sirupsen/logrus"
)

type Entry = log.Entry

type Logger struct {
	log.Logger
	Name           string `json:"name"`
	Level          Level  `json:"level"`
	isDefaultLevel bool
}

type Level string

const (
	// PanicLevel logs and then panics.
	PanicLevel Level = "panic"
	// FatalLevel logs and then exits the process.
	FatalLevel Level = "fatal"
	// ErrorLevel is for failures that should definitely be noted.
	ErrorLevel Level = "error"
	// WarnLevel is for non-critical entries that deserve eyes.
	WarnLevel Level = "warn"
	// InfoLevel is for lifecycle events: open, close, compaction.
	InfoLevel Level = "info"
	// DebugLevel is verbose, off by default.
	DebugLevel Level = "debug"
	TraceLevel Level = "trace"
)

var (
	defaultLogOut io.Writer = os.Stdout
	currentLogOut io.Writer = defaultLogOut
	defaultLevel            = InfoLevel
	loggerMap               = util.NewSafeMap[string, *Logger]()

	globalLock      sync.Mutex
	globalLoggerMap = make(map[string]Level)
)

func getLevel(level Level) log.Level {
	switch level {
	case PanicLevel:
		return log.PanicLevel
	case FatalLevel:
		return log.FatalLevel
	case ErrorLevel:
		return log.ErrorLevel
	case WarnLevel:
		return log.WarnLevel
	case InfoLevel:
		return log.InfoLevel
	case DebugLevel:
		return log.DebugLevel
	case TraceLevel:
		return log.TraceLevel
	}
	return log.DebugLevel
}

func IsValidLevel(level Level) bool {
	switch level {
	case PanicLevel, FatalLevel, ErrorLevel, WarnLevel, InfoLevel, DebugLevel, TraceLevel:
		return true
	default:
		return false
	}
}

func SetDefaultLevel(level Level) {
	if !IsValidLevel(level) {
		return
	}

	globalLock.Lock()
	defer globalLock.Unlock()
	defaultLevel = level
	for _, logger := range loggerMap.Items() {
		if logger.isDefaultLevel {
			logger.setLevel(level)
		}
	}
}

// SetLogLevel sets the level of one module logger. name may be "all"/"*"
// or a prefix ending in "*". The setting also applies to loggers created later.
func SetLogLevel(name string, level Level) {
	if !IsValidLevel(level) {
		return
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	globalLoggerMap[name] = level
	for _, logger := range loggerMap.Items() {
		if matchName(name, logger.Name) {
			logger.setModuleLevel(level)
		}
	}
}

func matchName(pattern, moduleName string) bool {
	if pattern == "all" || pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(moduleName, pattern[:len(pattern)-1])
	}
	return pattern == moduleName
}

func SetLogOut(out io.Writer) {
	globalLock.Lock()
	currentLogOut = out
	globalLock.Unlock()
	for _, logger := range loggerMap.Items() {
		logger.SetOutput(out)
	}
}

func GetLoggersInfo() []string {
	loggersInfo := make([]string, 0)
	for _, logger := range loggerMap.Items() {
		loggersInfo = append(loggersInfo, logger.String())
	}
	sort.Strings(loggersInfo)
	return loggersInfo
}

func NewLoggerEntry(moduleName string) *Entry {
	if logger, found := loggerMap.Get(moduleName); found {
		return logger.WithField("module", moduleName)
	}

	globalLock.Lock()
	logger := &Logger{
		Name:           moduleName,
		isDefaultLevel: true,
		Level:          defaultLevel,
	}
	logger.Out = currentLogOut
	logger.Formatter = new(log.TextFormatter)
	logger.Hooks = make(log.LevelHooks)
	logger.ExitFunc = os.Exit
	logger.Logger.SetLevel(getLevel(defaultLevel))

	for key, level := range globalLoggerMap {
		if matchName(key, moduleName) {
			logger.Logger.SetLevel(getLevel(level))
			logger.Level = level
			logger.isDefaultLevel = false
			break
		}
	}
	if !loggerMap.SetIfAbsent(moduleName, logger) {
		logger, _ = loggerMap.Get(moduleName)
	}
	globalLock.Unlock()
	return logger.WithField("module", moduleName)
}

// setLevel and setModuleLevel require globalLock.
func (logger *Logger) setLevel(level Level) {
	logger.Logger.SetLevel(getLevel(level))
	logger.Level = level
}

func (logger *Logger) setModuleLevel(level Level) {
	logger.setLevel(level)
	logger.isDefaultLevel = false
}

func (logger *Logger) SetLogLevel(level Level) {
	if !IsValidLevel(level) {
		return
	}

	globalLock.Lock()
	defer globalLock.Unlock()
	logger.setModuleLevel(level)
}

func (logger *Logger) String() string {
	globalLock.Lock()
	defer globalLock.Unlock()
	return fmt.Sprintf("%s: %s", logger.Name, logger.Level)
}
