package cmd

import (
	"log/slog"

	"github.com/symposiumhq/symposium/pkg/provider"
	"github.com/symposiumhq/symposium/pkg/provider/anthropic"
)

// NewProvider builds the model provider client. The API key comes from
// configuration; a missing key fails here rather than mid-thread.
func NewProvider(logger *slog.Logger, apiKey, model string) provider.Client {
	opts := []anthropic.Option{}
	if model != "" {
		opts = append(opts, anthropic.WithModel(model))
	}

	client, err := anthropic.NewClient(apiKey, logger, opts...)
	if err != nil {
		panic("failed to initialize model provider: " + err.Error())
	}

	return client
}
