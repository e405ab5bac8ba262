package magicprompt

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/papercomputeco/magicprompt/pkg/dataurl"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// parseImage turns the image field of a request into a media item. It accepts
// an http(s) URL, a base64 data URL, or bare base64 whose type is sniffed.
func parseImage(image string) (llm.MediaItem, error) {
	image = strings.TrimSpace(image)

	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		u, err := url.Parse(image)
		if err != nil || u.Host == "" {
			return llm.MediaItem{}, fmt.Errorf("%w: invalid image url", llm.ErrInvalidArgument)
		}
		return llm.MediaItem{
			Source:    llm.SourceURL,
			Data:      image,
			MediaType: mime.TypeByExtension(path.Ext(u.Path)),
		}, nil
	}

	if mediaType, _, ok := dataurl.Parse(image); ok {
		return llm.MediaItem{Source: llm.SourceBase64, Data: image, MediaType: mediaType}, nil
	}

	raw, err := dataurl.Decode(image)
	if err != nil {
		return llm.MediaItem{}, fmt.Errorf("%w: image is neither a url nor base64: %v", llm.ErrInvalidArgument, err)
	}
	return llm.MediaItem{
		Source:    llm.SourceBase64,
		Data:      image,
		MediaType: sniff(raw),
	}, nil
}

func sniff(raw []byte) string {
	mediaType := http.DetectContentType(raw)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return mediaType
}
