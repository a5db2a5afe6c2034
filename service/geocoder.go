package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"magit/config"
)

// Geocoder resolves coordinates to human-readable place names, most specific
// first.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) ([]string, error)
}

// YandexGeocoder calls the Yandex HTTP Geocoder API.
type YandexGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewYandexGeocoder(cfg config.GeocoderConfig) *YandexGeocoder {
	return &YandexGeocoder{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: defaultGeocoderTimeout},
	}
}

type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Name             string `json:"name"`
					Description      string `json:"description"`
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Text string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

func (g *YandexGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) ([]string, error) {
	params := url.Values{}
	params.Set("apikey", g.apiKey)
	params.Set("format", "json")
	params.Set("kind", "district")
	params.Set("lang", "ru_RU")
	// Yandex expects "longitude,latitude".
	params.Set("geocode", strconv.FormatFloat(lng, 'f', -1, 64)+","+strconv.FormatFloat(lat, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geocoder status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}

	var names []string
	for _, m := range out.Response.GeoObjectCollection.FeatureMember {
		obj := m.GeoObject
		for _, s := range []string{obj.Name, obj.MetaDataProperty.GeocoderMetaData.Text, obj.Description} {
			if s != "" {
				names = append(names, s)
			}
		}
	}
	return names, nil
}
