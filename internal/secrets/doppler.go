// Package secrets resolves sensitive settings through the Doppler CLI.
package secrets

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const lookupTimeout = 5 * time.Second

// DopplerClient reads secrets for one Doppler project/config pair
type DopplerClient struct {
	Project string
	Config  string

	mu          sync.Mutex
	initialized bool
	cache       map[string]string
}

// NewDopplerClient creates a new Doppler client
func NewDopplerClient(project, config string) *DopplerClient {
	return &DopplerClient{
		Project: project,
		Config:  config,
		cache:   make(map[string]string),
	}
}

// Initialize checks that the Doppler CLI is installed
func (d *DopplerClient) Initialize() error {
	if _, err := exec.LookPath("doppler"); err != nil {
		return fmt.Errorf("doppler CLI not found: %w", err)
	}

	d.mu.Lock()
	d.initialized = true
	d.mu.Unlock()
	return nil
}

// GetSecret returns the process environment value when running under
// `doppler run`, otherwise asks the CLI directly.
func (d *DopplerClient) GetSecret(key string) (string, error) {
	d.mu.Lock()
	initialized := d.initialized
	cached, ok := d.cache[key]
	d.mu.Unlock()

	if !initialized {
		if err := d.Initialize(); err != nil {
			return "", err
		}
	}
	if ok {
		return cached, nil
	}

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "doppler", "secrets", "get", key,
		"--project", d.Project,
		"--config", d.Config,
		"--plain")

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}

	value := strings.TrimSpace(string(output))
	d.mu.Lock()
	d.cache[key] = value
	d.mu.Unlock()
	return value, nil
}

// GetSecretWithFallback gets a secret from Doppler with a fallback value
func (d *DopplerClient) GetSecretWithFallback(key, fallback string) string {
	value, err := d.GetSecret(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
