package lib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogDirectory = "logs"
	LogFileName  = "log"
)

/*
	This file implements leveled, colored logging (Debug, Info, Warn, Error, Fatal) for the AMM node.
	Output goes to any writer; when none is given it goes to stdout and an auto-rotating log file in the data directory.
	A logger may carry a module prefix so lines from the state machine, store and rpc server can be told apart.
*/

func init() {
	color.NoColor = false
}

// LoggerI defines the interface for various logging levels and formatted output
type LoggerI interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	Print(msg string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Printf(format string, args ...interface{})
	// WithModule returns a logger that tags every line with the module name
	WithModule(module string) LoggerI
}

const (
	DebugLevel int32 = -4
	InfoLevel  int32 = 0
	WarnLevel  int32 = 4
	ErrorLevel int32 = 8

	Reset = iota
	RED
	GREEN
	YELLOW
	BLUE
	GRAY
)

var (
	_ LoggerI = &Logger{}
)

// LoggerConfig holds configuration settings for the logger, including logging level and output writer
type LoggerConfig struct {
	Level int32 `json:"level"`
	Out   io.Writer
}

// Logger is the concrete implementation of LoggerI
type Logger struct {
	config LoggerConfig
	module string
}

// Debug() logs a message at the Debug level with blue color
func (l *Logger) Debug(msg string) { l.log(DebugLevel, BLUE, "DEBUG", msg) }

// Info() logs a message at the Info level with green color
func (l *Logger) Info(msg string) { l.log(InfoLevel, GREEN, "INFO", msg) }

// Warn() logs a message at the Warn level with yellow color
func (l *Logger) Warn(msg string) { l.log(WarnLevel, YELLOW, "WARN", msg) }

// Error() logs a message at the Error level with red color
func (l *Logger) Error(msg string) { l.log(ErrorLevel, RED, "ERROR", msg) }

// Print() logs a message without any specific log level or color
func (l *Logger) Print(msg string) { l.write(msg) }

// Fatal() logs an error message and terminates the program
func (l *Logger) Fatal(msg string) {
	l.write(colorString(RED, l.tag("FATAL")+msg))
	os.Exit(1)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.Fatal(fmt.Sprintf(format, args...)) }
func (l *Logger) Printf(format string, args ...interface{}) { l.write(fmt.Sprintf(format, args...)) }

// WithModule() returns a copy of the logger that prefixes each line with [module]
func (l *Logger) WithModule(module string) LoggerI {
	return &Logger{config: l.config, module: module}
}

// log() writes the message if the configured level allows it
func (l *Logger) log(level int32, c int, label, msg string) {
	if l.config.Level <= level {
		l.write(colorString(c, l.tag(label)+msg))
	}
}

// tag() builds the 'LEVEL: [module] ' line prefix
func (l *Logger) tag(label string) string {
	if l.module == "" {
		return label + ": "
	}
	return label + ": [" + l.module + "] "
}

// write() outputs the log message with a timestamp to the configured writer
func (l *Logger) write(msg string) {
	timeColored := colorString(GRAY, time.Now().Format(time.StampMilli))
	if _, err := l.config.Out.Write([]byte(fmt.Sprintf("%s %s\n", timeColored, msg))); err != nil {
		fmt.Println(err.Error())
	}
}

// NewLogger() creates a new Logger instance with the specified configuration and optional data directory path
func NewLogger(config LoggerConfig, dataDirPath ...string) LoggerI {
	if config.Out == nil {
		if dataDirPath == nil || dataDirPath[0] == "" {
			dataDirPath = []string{DefaultDataDirPath()}
		}
		logPath := filepath.Join(dataDirPath[0], LogDirectory, LogFileName)
		if _, err := os.Stat(logPath); errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(filepath.Join(dataDirPath[0], LogDirectory), os.ModePerm); err != nil {
				panic(err)
			}
		}
		logFile := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    1, // megabyte
			MaxBackups: 100,
			MaxAge:     14, // days
			Compress:   true,
		}
		config.Out = io.MultiWriter(os.Stdout, logFile)
	}
	return &Logger{config: config}
}

// NewDefaultLogger() creates a Logger with default settings, logging at the Debug level to stdout
func NewDefaultLogger() LoggerI {
	return NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   os.Stdout,
	})
}

// NewNullLogger() creates a Logger that discards all log output
func NewNullLogger() LoggerI {
	return NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   io.Discard,
	})
}

// colorString() returns a string with color applied, preserving line breaks
func colorString(c int, msg string) string {
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = cString(c, line)
	}
	return strings.Join(lines, "\n")
}

// cString() returns a string with a specific color applied
func cString(c int, msg string) string {
	switch c {
	case BLUE:
		return color.BlueString(msg)
	case RED:
		return color.RedString(msg)
	case YELLOW:
		return color.YellowString(msg)
	case GREEN:
		return color.GreenString(msg)
	case GRAY:
		return color.HiBlackString(msg)
	default:
		return color.WhiteString(msg)
	}
}
