package service

import (
	"strings"

	"github.com/samber/lo"
	"github.com/set-night/captionbot/internal/config"
)

// IsAcceptableFilename reports whether name ends with an allowed image
// extension, ignoring case. Contents are not inspected here.
func IsAcceptableFilename(name string) bool {
	lower := strings.ToLower(name)
	return lo.ContainsBy(config.ImageExtensions, func(ext string) bool {
		return strings.HasSuffix(lower, ext)
	})
}
