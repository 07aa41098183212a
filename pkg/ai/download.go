package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// fetchAudio downloads the stored audio object through its presigned URL.
// Transient storage errors are retried with exponential backoff.
func fetchAudio(ctx context.Context, client *http.Client, audioURL string) ([]byte, error) {
	var data []byte

	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to download audio: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("storage returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("storage returned status %d", resp.StatusCode))
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read audio body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(fetch, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return data, nil
}

// audioReader wraps downloaded bytes for SDKs that want an io.Reader
func audioReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
