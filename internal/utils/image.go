package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("not a base64 image data URI")

// DecodeBase64Image decodes a `data:image/<ext>;base64,<data>` URI into the
// raw image bytes and the file extension. Storage of the result is up to the
// caller.
func DecodeBase64Image(dataURI string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return nil, "", ErrInvalidDataURI
	}

	header, encoded, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return nil, "", ErrInvalidDataURI
	}

	ext := strings.TrimPrefix(header, "data:image/")
	if ext == "" {
		return nil, "", ErrInvalidDataURI
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", err
	}

	return raw, ext, nil
}
