package http

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ContentType is a MIME type attached to a content response.
type ContentType string

const (
	ContentTypeText ContentType = "text/plain"
	ContentTypeHTML ContentType = "text/html"
	ContentTypeJSON ContentType = "application/json"
	ContentTypeGIF  ContentType = "image/gif"
	ContentTypePNG  ContentType = "image/png"
	ContentTypeJPEG ContentType = "image/jpeg"
	ContentTypeWebP ContentType = "image/webp"
	ContentTypeSVG  ContentType = "image/svg+xml"
)

var byExtension = map[string]ContentType{
	"html": ContentTypeHTML,
	"htm":  ContentTypeHTML,
	"json": ContentTypeJSON,
	"yml":  ContentTypeJSON,
	"yaml": ContentTypeJSON,
	"gif":  ContentTypeGIF,
	"png":  ContentTypePNG,
	"jpg":  ContentTypeJPEG,
	"jpeg": ContentTypeJPEG,
	"webp": ContentTypeWebP,
	"svg":  ContentTypeSVG,
}

// GuessContentType maps the extension of p to a content type. Matching ignores
// case; unknown or missing extensions give text/plain.
func GuessContentType(p string) ContentType {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ct, ok := byExtension[strings.ToLower(ext)]; ok {
		return ct
	}
	return ContentTypeText
}

// SniffContentType refines a text/plain guess by inspecting data.
//
// Only types GuessContentType can itself produce are adopted, so sniffing never
// introduces a MIME type outside the known set. Any other guess is returned
// unchanged.
func SniffContentType(guess ContentType, data []byte) ContentType {
	if guess != ContentTypeText || len(data) == 0 {
		return guess
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		base, _, _ := strings.Cut(m.String(), ";")
		switch ct := ContentType(base); ct {
		case ContentTypeHTML, ContentTypeJSON, ContentTypeGIF, ContentTypePNG,
			ContentTypeJPEG, ContentTypeWebP, ContentTypeSVG:
			return ct
		}
	}
	return guess
}
