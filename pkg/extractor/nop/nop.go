// Package nop provides a disabled-mode fact extractor used for tests and
// deployments without an LLM backend.
package nop

import (
	"context"

	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
)

// Driver is a no-op extractor: nothing is ever worth extracting.
type Driver struct{}

// NewDriver creates a new no-op extractor.
func NewDriver() *Driver {
	return &Driver{}
}

// ShouldExtract always declines.
func (d *Driver) ShouldExtract(_ string) bool {
	return false
}

// Extract returns an empty extraction.
func (d *Driver) Extract(_ context.Context, _, _ string) (*extractor.Extraction, error) {
	return &extractor.Extraction{
		Facts:       map[string]string{},
		Preferences: map[string]string{},
	}, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

var _ extractor.Driver = (*Driver)(nil)
