// Package weather fetches current conditions from the OpenWeather HTTP API.
// This is a peripheral feature; it shares nothing with the record-store data
// path beyond optionally saving a reading for signed-in users.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type Icon string

const (
	IconSun   Icon = "sun"
	IconCloud Icon = "cloud"
	IconRain  Icon = "rain"
)

type Conditions struct {
	Temperature int    `json:"temperature"`
	Conditions  string `json:"conditions"`
	Icon        Icon   `json:"icon"`
	Location    string `json:"location"`
}

// AuthSession is the slice of the session the recorder needs.
type AuthSession interface {
	CurrentUserID() string
}

type Service struct {
	apiKey  string
	baseURL string
	http    *http.Client

	// Optional: when both are set, readings are saved to the weather_data
	// collection for the signed-in user.
	store   *recordstore.Client
	session AuthSession
}

type Option func(*Service)

func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(s *Service) { s.http = h }
}

// WithRecorder saves each successful reading as a weather_data record when a
// user is signed in.
func WithRecorder(store *recordstore.Client, session AuthSession) Option {
	return func(s *Service) {
		s.store = store
		s.session = session
	}
}

func New(apiKey string, opts ...Option) *Service {
	s := &Service{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type apiResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Name string `json:"name"`
}

// Current fetches conditions for a coordinate pair.
func (s *Service) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("appid", s.apiKey)
	query.Set("units", "imperial")

	reqURL := s.baseURL + "/data/2.5/weather?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if len(data.Weather) == 0 {
		return nil, fmt.Errorf("weather response carried no conditions")
	}

	conditions := &Conditions{
		Temperature: int(data.Main.Temp + 0.5),
		Conditions:  titleWords(data.Weather[0].Description),
		Icon:        iconFor(data.Weather[0].Main),
		Location:    data.Name,
	}

	s.record(ctx, conditions)

	return conditions, nil
}

// record is best effort; a failed save never fails the read.
func (s *Service) record(ctx context.Context, c *Conditions) {
	if s.store == nil || s.session == nil {
		return
	}
	userID := s.session.CurrentUserID()
	if userID == "" {
		return
	}
	encoded, err := json.Marshal(c)
	if err != nil {
		return
	}
	p := recordstore.NewPayload().
		Set("user", userID).
		Set("data", string(encoded)).
		Set("timestamp", time.Now().UTC().Format(time.RFC3339))
	if _, err := s.store.Create(ctx, "weather_data", p); err != nil {
		log.Printf("failed to save weather reading: %v", err)
	}
}

func iconFor(condition string) Icon {
	lower := strings.ToLower(condition)
	switch {
	case strings.Contains(lower, "clear"), strings.Contains(lower, "sun"):
		return IconSun
	case strings.Contains(lower, "rain"), strings.Contains(lower, "drizzle"):
		return IconRain
	default:
		return IconCloud
	}
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
