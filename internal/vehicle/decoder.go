package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Attributes are the decoded fields the capability derivation consumes.
type Attributes struct {
	Year      string
	Make      string
	Model     string
	Trim      string
	Series    string
	BodyClass string
	Cab       string
	Engine    string
}

// Decoder resolves a 17-character VIN into decoded vehicle attributes.
type Decoder interface {
	Decode(ctx context.Context, vin string) (Attributes, error)
}

// VPICDecoder calls a vPIC-compatible DecodeVinValues endpoint.
type VPICDecoder struct {
	baseURL string
	client  *http.Client
}

func NewVPICDecoder(baseURL string) *VPICDecoder {
	return &VPICDecoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type decodeResponse struct {
	Results []decodeResult `json:"Results"`
}

type decodeResult struct {
	ModelYear   string `json:"ModelYear"`
	Make        string `json:"Make"`
	Model       string `json:"Model"`
	Trim        string `json:"Trim"`
	Series      string `json:"Series"`
	BodyClass   string `json:"BodyClass"`
	BodyCabType string `json:"BodyCabType"`
	EngineModel string `json:"EngineModel"`
}

func (d *VPICDecoder) Decode(ctx context.Context, vin string) (Attributes, error) {
	endpoint := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", d.baseURL, url.PathEscape(vin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Attributes{}, fmt.Errorf("building decode request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Attributes{}, fmt.Errorf("vin decode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Attributes{}, fmt.Errorf("vin decode: unexpected status %d", resp.StatusCode)
	}

	var payload decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Attributes{}, fmt.Errorf("decoding vin response: %w", err)
	}
	if len(payload.Results) == 0 {
		return Attributes{}, fmt.Errorf("vin decode: no results for %s", vin)
	}

	r := payload.Results[0]
	return Attributes{
		Year:      r.ModelYear,
		Make:      r.Make,
		Model:     r.Model,
		Trim:      r.Trim,
		Series:    r.Series,
		BodyClass: r.BodyClass,
		Cab:       r.BodyCabType,
		Engine:    r.EngineModel,
	}, nil
}
