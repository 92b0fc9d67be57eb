package corrector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// Corrector turns one sentence into its grammatically corrected form.
// Implementations must be deterministic and safe for concurrent use.
type Corrector interface {
	Correct(ctx context.Context, text string, maxLen int) (string, error)
}

// HTTPCorrector calls an external grammar correction service
type HTTPCorrector struct {
	httpclient *http.Client
	getURL     string
	timeout    time.Duration
}

// NewHTTPCorrector creates a grammar corrector client
func NewHTTPCorrector(getURL string) (*HTTPCorrector, error) {
	res := HTTPCorrector{}
	if getURL == "" {
		return nil, fmt.Errorf("no getURL")
	}
	res.getURL = getURL
	res.timeout = time.Second * 10
	res.httpclient = corrHTTPClient()
	goapp.Log.Info().Str("url", getURL).Msg("Corrector")
	return &res, nil
}

func (sp *HTTPCorrector) Correct(ctx context.Context, text string, maxLen int) (string, error) {
	ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
	defer cancelF()

	b := new(bytes.Buffer)
	err := json.NewEncoder(b).Encode(request{Text: text, MaxLen: maxLen})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequest(http.MethodPost, sp.getURL, b)
	if err != nil {
		return "", err
	}
	req = req.WithContext(ctx)
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
		return "", err
	}
	res := &response{}
	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil {
		return "", err
	}
	goapp.Log.Debug().Str("text", res.Corrected).Msg("correction result")
	return res.Corrected, nil
}

type request struct {
	Text   string `json:"text"`
	MaxLen int    `json:"maxLen,omitempty"`
}

type response struct {
	Corrected string `json:"corrected"`
}

func corrHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 5
	res.MaxIdleConns = 2
	res.MaxIdleConnsPerHost = 2
	res.IdleConnTimeout = 90 * time.Second
	return res
}
