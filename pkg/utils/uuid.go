package utils

import "github.com/google/uuid"

// TempName returns a random name suitable for a scratch file, keeping the
// original extension so downstream decoders can sniff the format.
func TempName(ext string) string {
	return uuid.NewString() + ext
}
