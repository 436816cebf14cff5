package domain

import "errors"

var (
	ErrDecode              = errors.New("image decode failed")
	ErrModel               = errors.New("caption model failed")
	ErrConfig              = errors.New("invalid configuration")
	ErrEmptyCaption        = errors.New("model returned an empty caption")
	ErrUnsupportedPlatform = errors.New("unsupported chat platform")
	ErrUnsupportedProvider = errors.New("unsupported caption provider")
	ErrAttachmentTooLarge  = errors.New("attachment exceeds size limit")
)
