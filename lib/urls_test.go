package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURLComponentsHTTPS(t *testing.T) {
	c, err := ParseURLComponents("https://example.com/foo/bar")
	assert.NoError(t, err)
	assert.Equal(t, "example.com", c.Host)
	assert.Equal(t, 443, c.Port)
	assert.Equal(t, "/foo/bar", c.Path)
	assert.True(t, c.UseTLS)
}

func TestParseURLComponentsHTTPWithExplicitPort(t *testing.T) {
	c, err := ParseURLComponents("http://example.com:8080")
	assert.NoError(t, err)
	assert.Equal(t, "example.com", c.Host)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "/", c.Path)
	assert.False(t, c.UseTLS)
}

func TestParseURLComponentsInvalid(t *testing.T) {
	_, err := ParseURLComponents("not a url")
	assert.Error(t, err)
}

func TestParseURLComponentsNoHost(t *testing.T) {
	_, err := ParseURLComponents("/just/a/path")
	assert.Error(t, err)
}
