package domain

import "strings"

const (
	// FallbackBaseName is used when the URL does not end in a usable file name
	FallbackBaseName = "img_"

	// FallbackExtension is used when the content type carries no subtype
	FallbackExtension = "img"
)

// DeriveFilename picks the on-disk name for a downloaded image.
//
// The last segment of rawURL (text after the final '/') is used verbatim when it
// contains a '.'. Otherwise the name is FallbackBaseName plus an extension taken
// from the content type subtype, e.g. "img_.png". The result is not sanitized
// and carries no uniqueness suffix.
func DeriveFilename(rawURL, contentType string) string {
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	if name != "" && strings.Contains(name, ".") {
		return name
	}
	return FallbackBaseName + "." + extensionFromContentType(contentType)
}

func extensionFromContentType(contentType string) string {
	idx := strings.Index(contentType, "/")
	if idx < 0 {
		return FallbackExtension
	}
	return contentType[idx+1:]
}
