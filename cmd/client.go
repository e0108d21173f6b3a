package cmd

import (
	"fmt"

	"github.com/longkey1/codeqa/internal/codeqa/client"
	"github.com/longkey1/codeqa/internal/codeqa/config"
	"github.com/longkey1/codeqa/internal/codeqa/conversation"
	"github.com/longkey1/codeqa/internal/codeqa/session"
	"github.com/rs/zerolog/log"
)

// newClient creates the backend client from the configuration
func newClient(cfg *config.Config) (*client.Client, error) {
	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("configuring client: %w", err)
	}
	return client.NewClient(clientCfg), nil
}

// newController wires a fresh conversation to the backend
func newController(cfg *config.Config) (*session.Controller, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return session.NewController(conversation.NewStore(), c,
		session.WithTemplateName(cfg.TemplateName),
		session.WithIncludeContext(cfg.IncludeContext),
		session.WithLogger(log.Logger),
	), nil
}
