package main

import (
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
	"github.com/cubenlp/WebChatter/pkg/webchat"
)

// settings holds the connection knobs after merging flags, environment and
// the config file. viper owns the precedence rules.
type settings struct {
	baseURL        string
	backendURL     string
	accessToken    string
	model          string
	timeout        time.Duration
	disableHistory bool
}

func resolveSettings() *settings {
	return &settings{
		baseURL:        viper.GetString("base-url"),
		backendURL:     viper.GetString("backend-url"),
		accessToken:    viper.GetString("access-token"),
		model:          viper.GetString("model"),
		timeout:        viper.GetDuration("timeout"),
		disableHistory: viper.GetBool("disable-history"),
	}
}

func (s *settings) validate() error {
	if s.baseURL == "" && s.backendURL == "" {
		return webchat.ErrMissingBaseURL
	}
	if s.accessToken == "" {
		return webchat.ErrMissingAccessToken
	}
	return nil
}

func (s *settings) newClient() (*backendapi.Client, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	options := []backendapi.Option{}
	if s.backendURL != "" {
		options = append(options, backendapi.WithBackendURL(s.backendURL))
	}
	if s.timeout > 0 {
		options = append(options, backendapi.WithTimeout(s.timeout))
	}

	return backendapi.NewClient(s.baseURL, s.accessToken, options...), nil
}

func (s *settings) newChat(extra ...webchat.Option) (*webchat.WebChat, error) {
	options := []webchat.Option{
		webchat.WithBaseURL(s.baseURL),
		webchat.WithAccessToken(s.accessToken),
	}
	if s.backendURL != "" {
		options = append(options, webchat.WithBackendURL(s.backendURL))
	}
	if s.model != "" {
		options = append(options, webchat.WithModel(s.model))
	}
	if s.timeout > 0 {
		options = append(options, webchat.WithHTTPClient(&http.Client{Timeout: s.timeout}))
	}
	if s.disableHistory {
		options = append(options, webchat.WithHistoryAndTrainingDisabled(true))
	}
	options = append(options, extra...)

	return webchat.New(options...)
}
