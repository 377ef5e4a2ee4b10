package main

import (
	"github.com/afi0204/electric-porta1/internal/config"
	"github.com/afi0204/electric-porta1/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
