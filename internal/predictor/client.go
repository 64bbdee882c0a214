package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"verdantia-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ParameterKeys is the fixed, ordered list of tracked parameter and
// trigger names. The predictor's forecast rows are positional over this
// exact order.
var ParameterKeys = []string{
	"surroundingTemperature",
	"surroundingHumidity",
	"solutionTemperature",
	"pH",
	"tds",
	"lightIntensity",
	"foggerTemperature",
	"foggerHumidity",
	"foggerTrigger",
	"lowTdsTrigger",
	"highTdsTrigger",
	"lowPhTrigger",
	"highPhTrigger",
}

var (
	// ErrUpstreamUnavailable network or timeout failure talking to the
	// model server. Ingestion falls back to the no-prediction result;
	// explicit prediction calls propagate it.
	ErrUpstreamUnavailable = errors.New("predictor unavailable")

	// ErrBadResponse malformed predictor payload (wrong row width,
	// missing fields). Fatal to the current operation.
	ErrBadResponse = errors.New("malformed predictor response")
)

// AnomalySummary is the opaque detector verdict stored on anomaly records.
type AnomalySummary struct {
	Detected        bool      `json:"detected"`
	DetectedCount   int       `json:"detected_list"`
	Threshold       float64   `json:"threshold"`
	Loss            *float64  `json:"loss"`
	Indices         []int     `json:"indices"`
	ExceedingLosses []float64 `json:"exceeding_losses"`
}

// Result is the combined outcome of one prediction round.
type Result struct {
	// Predictions maps every ParameterKey to its forecast value; nil
	// values mean "no prediction yet".
	Predictions map[string]*float64
	Anomaly     bool
	Summary     *AnomalySummary
	// TriggerStatus is the recommended actuator state per trigger name.
	TriggerStatus map[string]bool
}

// NoPrediction is the well-defined result for sectors inside the
// initialization grace period or when the upstream is unreachable:
// every forecast nil, no anomaly, no recommendation.
func NoPrediction() *Result {
	preds := make(map[string]*float64, len(ParameterKeys))
	for _, key := range ParameterKeys {
		preds[key] = nil
	}
	return &Result{Predictions: preds}
}

type detectResponse struct {
	Summary     AnomalySummary  `json:"summary"`
	Predictions json.RawMessage `json:"predictions"`
}

type triggerResponse struct {
	TriggerStatus map[string]bool `json:"trigger_status"`
}

// Client is the HTTP client for the external model server. Pure
// request/response; no local state beyond the connection pool.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// Predict runs the anomaly pass and the trigger pass against the model
// server and maps the latest forecast row onto ParameterKeys.
func (c *Client) Predict(ctx context.Context, window map[string][]domain.Reading,
	parameterSettings map[string][2]float64) (*Result, error) {

	var detect detectResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"latestData": window}).
		SetResult(&detect).
		Post("/receive-data")
	if err != nil {
		c.logger.Error("Predictor call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("Predictor returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}

	row, err := lastPredictionRow(detect.Predictions)
	if err != nil {
		return nil, err
	}
	if len(row) != len(ParameterKeys) {
		return nil, fmt.Errorf("%w: forecast row has %d entries, want %d",
			ErrBadResponse, len(row), len(ParameterKeys))
	}

	predictions := make(map[string]*float64, len(ParameterKeys))
	for i, key := range ParameterKeys {
		v := row[i]
		predictions[key] = &v
	}

	var triggers triggerResponse
	resp, err = c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"latestData":        window,
			"parameterSettings": parameterSettings,
		}).
		SetResult(&triggers).
		Post("/predict-triggers")
	if err != nil {
		c.logger.Error("Trigger prediction call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}

	summary := detect.Summary
	return &Result{
		Predictions:   predictions,
		Anomaly:       summary.Detected,
		Summary:       &summary,
		TriggerStatus: triggers.TriggerStatus,
	}, nil
}

// lastPredictionRow extracts the value of the last key of the predictions
// object in document order. Go maps do not preserve insertion order, so
// the object is walked token by token.
func lastPredictionRow(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing predictions", ErrBadResponse)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: predictions is not an object", ErrBadResponse)
	}

	var last []float64
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		var row []float64
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		last = row
	}
	if last == nil {
		return nil, fmt.Errorf("%w: empty predictions", ErrBadResponse)
	}
	return last, nil
}
