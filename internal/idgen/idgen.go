// Package idgen generates unique identifiers for conversion jobs.
package idgen

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// alphabet excludes symbols so ids stay URL and filename safe.
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	defaultSize = 16
)

func getSize(l ...int) int {
	size := defaultSize
	if len(l) > 0 {
		size = l[0]
	}
	return size
}

// String generates an optional length id, 16 characters by default.
// 16 characters over a 62-symbol alphabet carry ~95 bits of entropy.
func String(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate(alphabet, size)
}

// Number generates an optional length numeric id.
func Number(l ...int) string {
	size := getSize(l...)
	return gonanoid.MustGenerate("0123456789", size)
}

// Suffix returns the trailing n characters of an id, or the whole id when
// shorter. Used to keep derived file names unique without the full id.
func Suffix(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[len(id)-n:]
}
