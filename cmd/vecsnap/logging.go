package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type loggerCtxKeyType struct{}

var loggerCtxKey = loggerCtxKeyType{}

func createLogger(debug bool, logLevel string) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("invalid log level %s: %w", logLevel, err)
	}

	loggerCfg := zap.NewProductionConfig()
	if debug {
		loggerCfg = zap.NewDevelopmentConfig()
	}
	loggerCfg.Level = level

	logger, err := loggerCfg.Build()
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Named("vecsnap"), level, nil
}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func tryLogger(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerCtxKey).(*zap.Logger)
	if !ok {
		return nil
	}
	return logger
}

func getLogger(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerCtxKey).(*zap.Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}
