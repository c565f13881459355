package media

import (
	"bytes"
	"time"

	"github.com/bep/imagemeta"
)

var exifTimeLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
}

// captureTime extracts the EXIF DateTimeOriginal timestamp from raw image
// bytes. The second return is false when no usable timestamp was found.
// Parse failures degrade gracefully; callers fall back to file mtime.
func captureTime(data []byte) (time.Time, bool) {
	if len(data) == 0 {
		return time.Time{}, false
	}

	var captured time.Time
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "DateTimeOriginal" || ti.Tag == "DateTimeDigitized"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if found && ti.Tag != "DateTimeOriginal" {
				return nil
			}
			if parsed, ok := parseEXIFTime(ti.Value); ok {
				captured = parsed
				found = true
			}
			return nil
		},
	})
	if err != nil || !found {
		return time.Time{}, false
	}
	return captured, true
}

func parseEXIFTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case string:
		for _, layout := range exifTimeLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
