package httpengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAltSvcH3Port(t *testing.T) {
	cases := []struct {
		header   string
		wantPort int
		wantOK   bool
	}{
		{`h3=":8443"; ma=3600, h3-29=":443"`, 8443, true},
		{`h3="alt.example.com:443"; ma=3600`, 443, true},
		{`h3=""`, 0, true},
		{`h2=":443"`, 0, false},
		{``, 0, false},
	}
	for _, c := range cases {
		port, ok := parseAltSvcH3Port(c.header)
		assert.Equal(t, c.wantOK, ok, c.header)
		assert.Equal(t, c.wantPort, port, c.header)
	}
}
