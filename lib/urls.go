package lib

import (
	"fmt"
	"net/url"
	"strconv"
)

// URLComponents contains the parsed components of a URL.
type URLComponents struct {
	Host   string
	Port   int
	Path   string
	UseTLS bool
}

// ParseURLComponents extracts host, port, path, and TLS info from a URL in a single parse.
func ParseURLComponents(u string) (URLComponents, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return URLComponents{}, err
	}
	if parsedURL.Hostname() == "" {
		return URLComponents{}, fmt.Errorf("no host in url %q", u)
	}

	components := URLComponents{
		Host:   parsedURL.Hostname(),
		UseTLS: parsedURL.Scheme == "https",
	}

	if parsedURL.Port() != "" {
		port, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return URLComponents{}, err
		}
		components.Port = port
	} else if components.UseTLS {
		components.Port = 443
	} else {
		components.Port = 80
	}

	if parsedURL.Path == "" {
		components.Path = "/"
	} else {
		components.Path = parsedURL.Path
	}

	return components, nil
}

