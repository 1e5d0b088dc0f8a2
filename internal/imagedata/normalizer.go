package imagedata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var (
	// ErrFetchFailure is returned when a remote image cannot be downloaded
	ErrFetchFailure = errors.New("image fetch failed")
	// ErrMalformedPayload is returned when an embedded image is not a base64 data URI
	ErrMalformedPayload = errors.New("malformed image payload")
)

var dataURIPattern = regexp.MustCompile(`^data:(image/[a-z0-9.+-]+);base64,(.*)$`)

// Image is a decoded image ready to be sent to an oracle
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image back into its canonical embedded form
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Config for the image normalizer
type Config struct {
	FetchTimeout time.Duration
	MaxBytes     int64
}

// Normalizer converts image references into Images
type Normalizer struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *zap.Logger
}

// NewNormalizer creates a new image normalizer
func NewNormalizer(cfg Config, logger *zap.Logger) *Normalizer {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}

	return &Normalizer{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes:   cfg.MaxBytes,
		logger:     logger,
	}
}

// IsRemote reports whether ref points at a network resource
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Normalize resolves ref into an Image. Remote references are downloaded and
// converted to a data URI first so both kinds go through the same parser.
func (n *Normalizer) Normalize(ctx context.Context, ref string) (Image, error) {
	dataURI := strings.TrimSpace(ref)

	if IsRemote(dataURI) {
		fetched, err := n.fetch(ctx, dataURI)
		if err != nil {
			return Image{}, err
		}
		dataURI = fetched
	}

	return Parse(dataURI)
}

// Parse decodes a canonical data URI
func Parse(dataURI string) (Image, error) {
	match := dataURIPattern.FindStringSubmatch(dataURI)
	if match == nil {
		return Image{}, fmt.Errorf("%w: expected data:image/<type>;base64,<payload>", ErrMalformedPayload)
	}

	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return Image{MIMEType: match[1], Data: data}, nil
}

func (n *Normalizer) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned %s", ErrFetchFailure, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetchFailure, err)
	}
	if int64(len(body)) > n.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrFetchFailure, url, n.maxBytes)
	}

	mediaType := contentType(resp.Header.Get("Content-Type"), body)

	n.logger.Debug("Fetched remote image",
		zap.String("url", url),
		zap.String("media_type", mediaType),
		zap.Int("bytes", len(body)))

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

// contentType prefers the server's header and sniffs the body when the
// header is missing or generic.
func contentType(header string, body []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil {
			mediaType = strings.ToLower(mediaType)
			if mediaType != "application/octet-stream" && mediaType != "binary/octet-stream" {
				return mediaType
			}
		}
	}

	detected := mimetype.Detect(body).String()
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return detected
}

// LoadFile reads a local image into an Image, sniffing its media type
func LoadFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}

	mediaType := contentType("", data)
	if !strings.HasPrefix(mediaType, "image/") {
		return Image{}, fmt.Errorf("%w: %s is %s, not an image", ErrMalformedPayload, path, mediaType)
	}

	return Image{MIMEType: mediaType, Data: data}, nil
}
