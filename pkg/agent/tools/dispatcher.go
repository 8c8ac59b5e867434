package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"issue-agent-be/pkg/agent/protocol"
)

// Dispatcher performs the side-effecting call behind an Action activity and
// returns its textual outcome. Parameter semantics belong here, not to the
// codec: parameter is the raw text the model put between the parentheses.
type Dispatcher interface {
	Dispatch(ctx context.Context, tool protocol.ToolName, parameter *string) (string, error)
}

// HTTPDispatcher implements every tool in the closed enumeration with plain
// HTTP calls.
type HTTPDispatcher struct {
	client      *http.Client
	githubToken string
	geoapifyKey string
}

func NewHTTPDispatcher(githubToken, geoapifyKey string) *HTTPDispatcher {
	return &HTTPDispatcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		githubToken: githubToken,
		geoapifyKey: geoapifyKey,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, tool protocol.ToolName, parameter *string) (string, error) {
	args := parseArgs(parameter)

	switch tool {
	case protocol.ToolForkRepository:
		return d.forkRepository(ctx, args)
	case protocol.ToolGetFileContent:
		return d.getFileContent(ctx, args)
	case protocol.ToolCreatePullRequest:
		return d.createPullRequest(ctx, args)
	case protocol.ToolGeocodeLocation:
		return d.geocodeLocation(ctx, args)
	case protocol.ToolGetWeather:
		return d.getWeather(ctx, args)
	case protocol.ToolGetCurrentTime:
		return d.getCurrentTime(args)
	default:
		// The codec rejects unknown tools before dispatch; reaching this means
		// the enumeration grew without this switch being revisited.
		return "", fmt.Errorf("unreachable tool %q", tool)
	}
}

func (d *HTTPDispatcher) forkRepository(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("forkRepository requires a repository argument")
	}
	var result struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
	}
	path := fmt.Sprintf("https://api.github.com/repos/%s/forks", args[0])
	if err := d.githubJSON(ctx, "POST", path, nil, &result); err != nil {
		return "", err
	}
	return fmt.Sprintf("Forked %s to %s (%s)", args[0], result.FullName, result.HTMLURL), nil
}

func (d *HTTPDispatcher) getFileContent(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("getFileContent requires repository and path arguments")
	}
	path := fmt.Sprintf("https://api.github.com/repos/%s/contents/%s", args[0], args[1])
	req, err := http.NewRequestWithContext(ctx, "GET", path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")
	if d.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.githubToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func (d *HTTPDispatcher) createPullRequest(ctx context.Context, args []string) (string, error) {
	if len(args) < 4 {
		return "", fmt.Errorf("createPullRequest requires repository, title, head and base arguments")
	}
	payload := map[string]string{
		"title": args[1],
		"head":  args[2],
		"base":  args[3],
	}
	var result struct {
		HTMLURL string `json:"html_url"`
		Number  int    `json:"number"`
	}
	path := fmt.Sprintf("https://api.github.com/repos/%s/pulls", args[0])
	if err := d.githubJSON(ctx, "POST", path, payload, &result); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created pull request #%d: %s", result.Number, result.HTMLURL), nil
}

func (d *HTTPDispatcher) geocodeLocation(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("geocodeLocation requires a location argument")
	}
	params := url.Values{}
	params.Add("text", args[0])
	params.Add("limit", "1")
	params.Add("apiKey", d.geoapifyKey)

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://api.geoapify.com/v1/geocode/search?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geoapify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Features []struct {
			Properties struct {
				Formatted string  `json:"formatted"`
				Lat       float64 `json:"lat"`
				Lon       float64 `json:"lon"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode geoapify response: %w", err)
	}
	if len(result.Features) == 0 {
		return fmt.Sprintf("No location found for %q", args[0]), nil
	}
	p := result.Features[0].Properties
	return fmt.Sprintf("%s (lat %.4f, lon %.4f)", p.Formatted, p.Lat, p.Lon), nil
}

func (d *HTTPDispatcher) getWeather(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("getWeather requires latitude and longitude arguments")
	}
	params := url.Values{}
	params.Add("latitude", args[0])
	params.Add("longitude", args[1])
	params.Add("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://api.open-meteo.com/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode open-meteo response: %w", err)
	}
	w := result.CurrentWeather
	return fmt.Sprintf("Temperature %.1f°C, wind %.1f km/h (weather code %d)", w.Temperature, w.WindSpeed, w.WeatherCode), nil
}

func (d *HTTPDispatcher) getCurrentTime(args []string) (string, error) {
	loc := time.Local
	if len(args) >= 1 && args[0] != "" {
		parsed, err := time.LoadLocation(args[0])
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", args[0], err)
		}
		loc = parsed
	}
	return time.Now().In(loc).Format(time.RFC1123), nil
}

func (d *HTTPDispatcher) githubJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.githubToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("github error: status %d, body: %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, result)
}

// parseArgs splits the raw parameter text on commas that are outside double
// quotes, stripping surrounding quotes and whitespace from each piece.
func parseArgs(parameter *string) []string {
	if parameter == nil {
		return nil
	}

	var args []string
	var current strings.Builder
	inQuotes := false
	for _, r := range *parameter {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || len(args) > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}
