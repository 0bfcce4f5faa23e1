package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads catalog images and removes them again.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

// ErrNotConfigured is returned by uploads when no Cloudinary credentials are set.
var ErrNotConfigured = errors.New("cloudinary: not configured")

// Eager transformation applied on upload so the delivery URL is already optimized.
const imageEager = "q_auto,f_auto,w_1200,c_limit"

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an image and returns its secure delivery URL.
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

// DeleteByURL destroys the asset behind a delivery URL. URLs that do not
// belong to Cloudinary are ignored.
func (c *clientImpl) DeleteByURL(ctx context.Context, rawURL string) error {
	publicID, ok := PublicIDFromURL(rawURL)
	if !ok {
		return nil
	}
	result, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, result.Error.Message)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, result.Result)
	}
	return nil
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
// Without a cloud name the returned client rejects uploads and ignores deletes.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	if cloudName == "" {
		return disabledClient{}, nil
	}
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}

type disabledClient struct{}

func (disabledClient) UploadImage(context.Context, io.Reader, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (disabledClient) DeleteByURL(context.Context, string) error { return nil }

var versionSegment = regexp.MustCompile(`^v\d+$`)

func isCloudinaryHost(host string) bool {
	host = strings.ToLower(host)
	return host == "cloudinary.com" || strings.HasSuffix(host, ".cloudinary.com")
}

// PublicIDFromURL extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/c_fill,w_800/v1712/tours/abc.jpg
// (-> "tours/abc").
func PublicIDFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !isCloudinaryHost(u.Hostname()) {
		return "", false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	start := -1
	for i, s := range segs {
		if s == "upload" {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(segs) {
		return "", false
	}
	rest := segs[start:]
	cut := -1
	for i, s := range rest {
		if versionSegment.MatchString(s) {
			cut = i + 1
			break
		}
	}
	if cut >= 0 {
		rest = rest[cut:]
	} else {
		for len(rest) > 1 && isTransformation(rest[0]) {
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return "", false
	}
	last := rest[len(rest)-1]
	rest[len(rest)-1] = strings.TrimSuffix(last, path.Ext(last))
	id := strings.Join(rest, "/")
	return id, id != ""
}

var transformationPart = regexp.MustCompile(`^[a-z]{1,3}_[^/]+$`)

func isTransformation(seg string) bool {
	for _, part := range strings.Split(seg, ",") {
		if !transformationPart.MatchString(part) {
			return false
		}
	}
	return true
}
