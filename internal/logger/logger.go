// Package logger настраивает logrus для сервиса.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New создает логгер: JSON в production, текст в development
func New(appEnv, level string) *logrus.Logger {
	return newWithOutput(os.Stdout, appEnv, level)
}

func newWithOutput(out io.Writer, appEnv, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if appEnv == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		log.WithField("level", level).Warn("неизвестный уровень логирования, используем info")
	}
	log.SetLevel(lvl)

	return log
}

// ForService возвращает запись логгера с полем service
func ForService(log logrus.FieldLogger, name string) *logrus.Entry {
	return log.WithField("service", name)
}
