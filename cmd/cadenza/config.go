package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/franz/cadenza/internal/store"
	"github.com/franz/cadenza/internal/util"
)

// newLogger builds the process logger from the verbosity flags
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
		DisableColors:   !util.IsTerminal(os.Stderr.Fd()),
	})

	switch {
	case viper.GetBool("quiet"):
		logger.SetLevel(logrus.ErrorLevel)
	case viper.GetBool("verbose"):
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// withStore opens the library database, runs fn, and closes it
func withStore(fn func(*store.Store) error) error {
	db, err := openStore(newLogger())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// openStore opens the library database from the configured path
func openStore(logger *logrus.Logger) (*store.Store, error) {
	path := viper.GetString("db")
	if path == "" {
		return nil, fmt.Errorf("%w: no database path, set --db or CADENZA_DB", util.ErrInvalidConfig)
	}
	db, err := store.OpenWithOptions(path, &store.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}
