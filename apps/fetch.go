package apps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const maxResponseSize = 1 << 20

func fetch(ctx context.Context, client Doer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", url)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response of %s", url)
	}

	return body, nil
}

func fetchJSON(ctx context.Context, client Doer, url string, v interface{}) error {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return err
	}

	err = json.Unmarshal(body, v)
	if err != nil {
		return errors.Wrapf(err, "failed to decode response of %s", url)
	}

	return nil
}

func fetchInt(ctx context.Context, client Doer, url string) (int64, error) {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "response of %s is not a number", url)
	}

	return value, nil
}
