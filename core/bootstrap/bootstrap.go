package bootstrap

import (
	"fmt"

	coreconfig "ventbot/core/config"
	"ventbot/core/logger"
	"ventbot/core/store"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(coreconfig.StoreConfig) (store.KV, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store store.KV
}

// Run initializes the logger and opens the key-value store.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	open := opts.OpenStore
	if open == nil {
		open = store.Open
	}
	kv, err := open(opts.Config.Store)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
	}

	return &Result{Store: kv}, nil
}
