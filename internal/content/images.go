package content

import (
	_ "embed"
	"encoding/json"
)

//go:embed caption_images.json
var captionImagesJSON []byte

// CaptionImages returns the embedded caption-this-image picture URLs.
func CaptionImages() []string {
	var urls []string
	if err := json.Unmarshal(captionImagesJSON, &urls); err != nil {
		return nil
	}
	return urls
}
