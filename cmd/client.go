package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyneda/trailscan/lib"
	"github.com/pyneda/trailscan/pkg/httpengine"
)

var (
	clientBody     string
	clientMethod   string
	clientHeadOnly bool
	clientHTTP1    bool
	clientHTTP2    bool
	clientHTTP3    bool
	clientHeaders  []string
	clientTrailers []string
	clientProxy    string
)

var clientCmd = &cobra.Command{
	Use:   "client <url>",
	Short: "Send a single structured request through the HTTP engine",
	Long: `client issues a single request against url using the same HTTP engine
the scanner's probes use, useful for manually confirming a finding or
inspecting how a target behaves over a specific protocol.`,
	Args: cobra.ExactArgs(1),
	RunE: runClient,
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().StringVarP(&clientBody, "data", "d", "", "request body")
	clientCmd.Flags().StringVarP(&clientMethod, "method", "m", "GET", "HTTP method")
	clientCmd.Flags().BoolVarP(&clientHeadOnly, "head", "I", false, "use HEAD and only print response headers")
	clientCmd.Flags().BoolVar(&clientHTTP1, "http1", false, "force HTTP/1.1")
	clientCmd.Flags().BoolVar(&clientHTTP2, "http2", false, "force HTTP/2 over TLS")
	clientCmd.Flags().BoolVar(&clientHTTP3, "http3", false, "force HTTP/3 over QUIC")
	clientCmd.Flags().StringArrayVarP(&clientHeaders, "header", "H", nil, "header in key:value form, repeatable")
	clientCmd.Flags().StringArrayVarP(&clientTrailers, "trailer", "T", nil, "trailer in key:value form, repeatable")
	clientCmd.Flags().StringVar(&clientProxy, "proxy", "", "proxy URL")
}

func runClient(cmd *cobra.Command, args []string) error {
	target := args[0]

	method := clientMethod
	if clientHeadOnly {
		method = "HEAD"
	}

	req := httpengine.NewRequest(target, method).FollowRedirects(true)
	if clientBody != "" {
		req.Body([]byte(clientBody))
	}
	for key, values := range lib.ParseHeadersStringToMap(strings.Join(clientHeaders, ",")) {
		for _, value := range values {
			req.Header(key, value)
		}
	}
	for _, t := range clientTrailers {
		key, value, ok := strings.Cut(t, ":")
		if !ok {
			return fmt.Errorf("malformed trailer %q, expected key:value", t)
		}
		req.Trailer(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if clientProxy != "" {
		req.SetProxy(clientProxy)
	}

	connectTimeout := viper.GetDuration("navigation.connect_timeout") * time.Second
	rwTimeout := viper.GetDuration("navigation.read_write_timeout") * time.Second
	req.Timeout(rwTimeout)

	proto, resp, err := sendWithProtocol(context.Background(), target, req, connectTimeout, rwTimeout)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("request failed")
		return err
	}

	fmt.Printf("%s %d\n", proto, resp.StatusCode)
	for key, values := range resp.Header {
		for _, v := range values {
			fmt.Printf("%s: %s\n", key, v)
		}
	}
	if !clientHeadOnly {
		fmt.Println()
		os.Stdout.Write(resp.Body)
	}
	return nil
}

func sendWithProtocol(ctx context.Context, target string, req *httpengine.Request, connectTimeout, rwTimeout time.Duration) (httpengine.Protocol, *httpengine.Response, error) {
	switch {
	case clientHTTP2:
		client := httpengine.NewH2Client(connectTimeout, rwTimeout)
		client.Proxy = clientProxy
		resp, err := client.SendRequest(ctx, req)
		return httpengine.H2, resp, err
	case clientHTTP3:
		client := httpengine.NewH3Client(rwTimeout)
		resp, err := client.SendRequest(ctx, req)
		return httpengine.H3, resp, err
	default:
		client := httpengine.NewH1Client(connectTimeout, rwTimeout)
		client.Proxy = clientProxy
		resp, err := client.SendRequest(ctx, req)
		return httpengine.H1, resp, err
	}
}
