// Package ecmwf downloads S2S total-precipitation forecast archives from the
// ECMWF data service.
package ecmwf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// forecastSteps are the valid times requested per archive: every six hours
// out to step 144.
const forecastSteps = "0/6/12/18/24/30/36/42/48/54/60/66/72/78/84/90/96/102/108/114/120/126/132/138/144"

// paramTotalPrecipitation is the ECMWF parameter code for total precipitation.
const paramTotalPrecipitation = "228228"

// Client retrieves enfo archives over HTTP and stores them in the local data
// directory. It performs no retries; the pipeline's backoff loop owns those.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	dataDir    string
	logger     *slog.Logger
}

// NewClient creates an ECMWF archive client writing into dataDir.
func NewClient(key string, timeout time.Duration, dataDir string, logger *slog.Logger) *Client {
	return &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.ecmwf.int/v1/datasets/s2s/requests",
		dataDir: dataDir,
		logger:  logger,
	}
}

// FetchPerturbed downloads the perturbed (ensemble) forecast archive for the
// given base date and returns the path of the stored file. The date must be
// formatted YYYY-MM-DD.
func (c *Client) FetchPerturbed(ctx context.Context, date string) (string, error) {
	return c.Fetch(ctx, domain.PerturbedForecast, date)
}

// FetchControl downloads the control forecast archive for the given base date
// and returns the path of the stored file.
func (c *Client) FetchControl(ctx context.Context, date string) (string, error) {
	return c.Fetch(ctx, domain.ControlForecast, date)
}

// retrieveRequest mirrors the MARS request the service accepts.
type retrieveRequest struct {
	Class   string `json:"class"`
	Dataset string `json:"dataset"`
	Date    string `json:"date"`
	Expver  string `json:"expver"`
	Levtype string `json:"levtype"`
	Model   string `json:"model"`
	Number  string `json:"number,omitempty"`
	Origin  string `json:"origin"`
	Param   string `json:"param"`
	Step    string `json:"step"`
	Stream  string `json:"stream"`
	Time    string `json:"time"`
	Type    string `json:"type"`
	Format  string `json:"format"`
}

// Fetch downloads one archive of the given kind for the given base date.
func (c *Client) Fetch(ctx context.Context, kind domain.ForecastKind, date string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown forecast kind %q", kind)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("date has to be in the format: 'YYYY-MM-DD'")
	}

	req := retrieveRequest{
		Class:   "s2",
		Dataset: "s2s",
		Date:    date,
		Expver:  "prod",
		Levtype: "sfc",
		Model:   "glob",
		Origin:  "ecmf",
		Param:   paramTotalPrecipitation,
		Step:    forecastSteps,
		Stream:  "enfo",
		Time:    "00:00:00",
		Type:    string(kind),
		Format:  "netcdf",
	}
	if kind == domain.PerturbedForecast {
		// Ensemble member numbers 1 through 100.
		req.Number = "1/to/100"
	}

	target := filepath.Join(c.dataDir, fmt.Sprintf("enfo_%s_%s.nc", kind, parsed.Format("2006_01_02")))

	if err := c.doRetrieve(ctx, req, target); err != nil {
		return "", fmt.Errorf("download failed for %s: %w", date, err)
	}

	c.logger.Info("archive downloaded", "date", date, "type", kind, "target", target)
	return target, nil
}

// doRetrieve posts the request and streams the archive body to the target
// path. The file is written to a temp name first so a partial download never
// masquerades as a complete archive.
func (c *Client) doRetrieve(ctx context.Context, req retrieveRequest, target string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("retrieve request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ecmwf API error: status %d: %s", resp.StatusCode, msg)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("stream archive body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}
