// Package mediatype holds the static classification table that maps verified
// MIME types to storage subdirectories and file extensions.
package mediatype

import "strings"

const fallbackExtension = ".bin"

type class struct {
	prefix   string
	subdir   string
	subtypes map[string]string // subtype -> extension
}

// table is built once and only read afterwards.
var table = []class{
	{
		prefix: "image/",
		subdir: "images",
		subtypes: map[string]string{
			"jpeg": ".jpg",
			"png":  ".png",
			"gif":  ".gif",
			"webp": ".webp",
		},
	},
	{
		prefix: "video/",
		subdir: "videos",
		subtypes: map[string]string{
			"mp4": ".mp4",
		},
	},
	{
		prefix: "audio/",
		subdir: "audios",
		subtypes: map[string]string{
			"mpeg": ".mp3",
			"wav":  ".wav",
		},
	},
}

func lookup(mimeType string) (*class, string, bool) {
	mimeType = normalize(mimeType)
	for i := range table {
		c := &table[i]
		if sub, ok := strings.CutPrefix(mimeType, c.prefix); ok {
			return c, sub, true
		}
	}
	return nil, "", false
}

func normalize(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// SubdirectoryFor returns the storage subdirectory for a MIME type, or ""
// when its prefix is not classified.
func SubdirectoryFor(mimeType string) string {
	c, _, ok := lookup(mimeType)
	if !ok {
		return ""
	}
	return c.subdir
}

// ExtensionFor returns the stored file extension, ".bin" for anything
// outside the table.
func ExtensionFor(mimeType string) string {
	c, sub, ok := lookup(mimeType)
	if !ok {
		return fallbackExtension
	}
	if ext, ok := c.subtypes[sub]; ok {
		return ext
	}
	return fallbackExtension
}

// Allowed lists every allow-listed MIME type.
func Allowed() []string {
	var out []string
	for _, c := range table {
		for sub := range c.subtypes {
			out = append(out, c.prefix+sub)
		}
	}
	return out
}

// IsSubdirectory reports whether name is one of the storage subdirectories.
func IsSubdirectory(name string) bool {
	for _, c := range table {
		if c.subdir == name {
			return true
		}
	}
	return false
}

// TypeForExtension is the reverse lookup used when serving stored files.
func TypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	for _, c := range table {
		for sub, e := range c.subtypes {
			if e == ext {
				return c.prefix + sub
			}
		}
	}
	return "application/octet-stream"
}
