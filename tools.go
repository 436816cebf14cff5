//go:build tools
// +build tools

// Package captionbot tracks tool dependencies invoked via go generate.
package captionbot

import (
	_ "go.uber.org/mock/mockgen"
)
