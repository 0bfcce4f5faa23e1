package cloudinary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/tourbook/tours/abc.jpg", "tourbook/tours/abc", true},
		{"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_1200,c_limit/v1/tourbook/hotels/h1.png", "tourbook/hotels/h1", true},
		{"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto/tourbook/tours/abc.webp", "tourbook/tours/abc", true},
		{"https://res.cloudinary.com/demo/image/upload/sample.jpg", "sample", true},
		{"https://example.com/image/upload/v1/abc.jpg", "", false},
		{"https://evilcloudinary.com/demo/image/upload/v1/abc.jpg", "", false},
		{"https://res.cloudinary.com.evil.net/demo/image/upload/v1/abc.jpg", "", false},
		{"https://RES.Cloudinary.com:443/demo/image/upload/v1/abc.jpg", "abc", true},
		{"https://res.cloudinary.com/demo/image/upload/", "", false},
		{"::not a url", "", false},
	}
	for _, tt := range tests {
		got, ok := PublicIDFromURL(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestDisabledClient(t *testing.T) {
	c, err := NewClientFromParams("", "", "")
	assert.NoError(t, err)
	_, err = c.UploadImage(context.Background(), strings.NewReader("x"), "f", "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, c.DeleteByURL(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/a.jpg"))
}
