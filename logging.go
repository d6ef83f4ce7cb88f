package main

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	coreLog  *logrus.Entry
	ariLog   *logrus.Entry
	frameLog *logrus.Entry
	logFile  *lumberjack.Logger
)

// frameDumps controls whether raw WebSocket frames are logged.
var frameDumps bool

// framePrefix starts every raw frame dump emitted by the ari package.
const framePrefix = "frame:"

// initLogging configures the component loggers from the [logging] section.
func initLogging(cfg *ini.File) error {
	sec := cfg.Section("logging")

	consoleMin := toLogrusLevel(sec.Key("console_min_level").MustInt(0))
	fileMin := toLogrusLevel(sec.Key("file_min_level").MustInt(0))

	logFile = &lumberjack.Logger{
		Filename:   sec.Key("file").MustString("aribridge.log"),
		MaxSize:    100, // megabytes
		MaxBackups: 1,
	}

	coreLog = newLogger("core", toLogrusLevel(sec.Key("core").MustInt(2)), consoleMin, fileMin, os.Stdout, logFile)
	ariLog = newLogger("ari", toLogrusLevel(sec.Key("ari").MustInt(2)), consoleMin, fileMin, os.Stdout, logFile)

	var filters []logrus.Hook
	frameDumps = sec.Key("frames").MustBool(false)
	if !frameDumps {
		// filter out raw frame dumps
		filters = append(filters, &frameFilterHook{})
	}
	frameLog = newLogger("frames", logrus.TraceLevel, consoleMin, fileMin, os.Stdout, logFile, filters...)
	return nil
}

// closeLogging flushes and closes log files.
func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// writerHook writes logs to the specified writer for provided levels.
type writerHook struct {
	Writer    io.Writer
	LogLevels []logrus.Level
}

func (h *writerHook) Fire(e *logrus.Entry) error {
	if e.Level > logrus.TraceLevel {
		return nil // filtered
	}
	line, err := e.String()
	if err != nil {
		return err
	}
	_, err = h.Writer.Write([]byte(line))
	return err
}

func (h *writerHook) Levels() []logrus.Level {
	return h.LogLevels
}

// newLogger builds a component logger. Filters run before the writer hooks.
func newLogger(name string, level, consoleMin, fileMin logrus.Level, console, file io.Writer, filters ...logrus.Hook) *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	for _, f := range filters {
		logger.AddHook(f)
	}
	logger.AddHook(&writerHook{Writer: console, LogLevels: availableLevels(consoleMin)})
	logger.AddHook(&writerHook{Writer: file, LogLevels: availableLevels(fileMin)})
	return logger.WithField("name", name)
}

// availableLevels lists the levels at least as severe as min. Passing
// TraceLevel yields every level.
func availableLevels(min logrus.Level) []logrus.Level {
	levels := []logrus.Level{}
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	return levels
}

func toLogrusLevel(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.TraceLevel
	case v == 1:
		return logrus.DebugLevel
	case v == 2:
		return logrus.InfoLevel
	case v == 3:
		return logrus.WarnLevel
	case v == 4:
		return logrus.ErrorLevel
	case v == 5:
		return logrus.FatalLevel
	default:
		return logrus.PanicLevel // off
	}
}

// frameFilterHook suppresses raw frame dumps when disabled via configuration.
type frameFilterHook struct{}

func (h *frameFilterHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *frameFilterHook) Fire(e *logrus.Entry) error {
	if strings.HasPrefix(e.Message, framePrefix) {
		// push below trace so writer hooks ignore the entry
		e.Level = logrus.TraceLevel + 1
	}
	return nil
}
