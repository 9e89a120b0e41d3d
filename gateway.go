package bundlebase

import (
	"context"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// DefaultGateway is the gateway used when the config doesn't name one.
const DefaultGateway = "https://arweave.net"

// Fetch opens the raw byte stream of transaction txid from a gateway.
// The caller owns the returned ReadCloser.  No seeking is possible on
// the returned stream, which is fine -- the decoder only ever reads
// forward.
func Fetch(ctx context.Context, gateway, txid string) (rc io.ReadCloser, err error) {
	url := fmt.Sprintf("%s/%s", gateway, txid)
	log.Debugf("fetching %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gateway returned %s for %s", resp.Status, txid)
	}
	log.Debugf("expected content length: %d", resp.ContentLength)
	return resp.Body, nil
}
