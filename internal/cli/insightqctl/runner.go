package insightqctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("insightqctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "InsightQ API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 30s)")
	session := fs.String("session", "", "Session ID for session-scoped commands")
	file := fs.String("file", "", "Path to a CSV or Excel file (upload)")
	format := fs.String("format", "", "Export format: parquet or csv")
	out := fs.String("out", "", "Output path for export (defaults to stdout)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	base := strings.TrimRight(*baseURL, "/")
	command := strings.TrimSpace(fs.Arg(0))

	var (
		method      string
		path        string
		body        io.Reader
		contentType string
		rawOutput   bool
	)
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "upload":
		if strings.TrimSpace(*file) == "" {
			_, _ = fmt.Fprintln(stderr, "upload requires -file")
			return 2
		}
		uploadBody, uploadContentType, err := multipartFileBody(*file)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "read file: %v\n", err)
			return 1
		}
		method, path = http.MethodPost, "/v1/datasets"
		body, contentType = uploadBody, uploadContentType
	case "ask":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question argument")
			return 2
		}
		payload, err := json.Marshal(map[string]string{"question": question})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
			return 1
		}
		method, path = http.MethodPost, "/v1/sessions/"+*session+"/ask"
		body, contentType = bytes.NewReader(payload), "application/json"
	case "summary":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		method, path = http.MethodPost, "/v1/sessions/"+*session+"/summary"
	case "schema":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*session+"/schema"
	case "history":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*session+"/history"
	case "export":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*session+"/export"
		if strings.TrimSpace(*format) != "" {
			path += "?format=" + strings.TrimSpace(*format)
		}
		rawOutput = true
	case "delete":
		if err := requireSession(*session, stderr); err != nil {
			return 2
		}
		method, path = http.MethodDelete, "/v1/sessions/"+*session
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	code, responseBody, err := doRequest(ctx, client, method, base+path, *apiKey, body, contentType)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if rawOutput {
		if strings.TrimSpace(*out) != "" {
			if err := os.WriteFile(*out, responseBody, 0o644); err != nil {
				_, _ = fmt.Fprintf(stderr, "write %s: %v\n", *out, err)
				return 1
			}
			_, _ = fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(responseBody), *out)
			return 0
		}
		_, _ = stdout.Write(responseBody)
		return 0
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func requireSession(session string, stderr io.Writer) error {
	if strings.TrimSpace(session) == "" {
		_, _ = fmt.Fprintln(stderr, "this command requires -session")
		return fmt.Errorf("session is required")
	}
	return nil
}

func multipartFileBody(path string) (io.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: insightqctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                     GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                      GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  upload -file <path>        POST /v1/datasets")
	_, _ = fmt.Fprintln(w, "  ask -session <id> <text>   POST /v1/sessions/{id}/ask")
	_, _ = fmt.Fprintln(w, "  summary -session <id>      POST /v1/sessions/{id}/summary")
	_, _ = fmt.Fprintln(w, "  schema -session <id>       GET /v1/sessions/{id}/schema")
	_, _ = fmt.Fprintln(w, "  history -session <id>      GET /v1/sessions/{id}/history")
	_, _ = fmt.Fprintln(w, "  export -session <id>       GET /v1/sessions/{id}/export")
	_, _ = fmt.Fprintln(w, "  delete -session <id>       DELETE /v1/sessions/{id}")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
