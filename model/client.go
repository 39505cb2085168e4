package model

import (
	"errors"
	"strings"
)

var ErrEmptyEndpoint = errors.New("client endpoint is missing or empty")

// ClientConfig identifies the daemon a chain of nodes talks to.
// It is a comparable value; two configs are equal when their endpoints are.
type ClientConfig struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
}

func NewClientConfig(endpoint string) (ClientConfig, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ClientConfig{}, ErrEmptyEndpoint
	}
	return ClientConfig{Endpoint: endpoint}, nil
}

func (c ClientConfig) IsZero() bool {
	return c.Endpoint == ""
}

func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrEmptyEndpoint
	}
	return nil
}
