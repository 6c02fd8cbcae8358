// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

//go:build !unix

package rpkg

import (
	"fmt"
	"os"
)

// mapFile reads the whole package when mmap is not available.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open package: %w", err)
	}

	return data, func() error { return nil }, nil
}
