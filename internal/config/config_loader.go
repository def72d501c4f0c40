package config

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/getsentry/sentry-go"
	"planner.randoplan.org/internal/report"
)

// ValidateConfigFlags ensures that exactly one source-list input is
// specified: either a local file "--sources-file" or a remote URL
// "--sources-url".
func ValidateConfigFlags(sourcesFile, sourcesURL *string) error {
	if *sourcesFile == "" && *sourcesURL == "" {
		return fmt.Errorf("no data sources provided, either --sources-file or --sources-url must be specified")
	}
	if (*sourcesFile != "" && *sourcesURL != "") || len(flag.Args()) > 0 {
		return fmt.Errorf("only one of --sources-file or --sources-url can be specified")
	}
	return nil
}

// LoadSourcesFromFile reads a JSON source list from disk.
//
// On error, it reports the issue to Sentry and returns a descriptive error.
func LoadSourcesFromFile(filePath string) (Sources, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  map[string]string{"file_path": filePath},
			Level: sentry.LevelError,
		})
		return Sources{}, fmt.Errorf("failed to read sources file: %v", err)
	}

	return parseSources(data, filePath)
}

// LoadSourcesFromURL fetches a JSON source list from a remote HTTP(S)
// endpoint, using the provided client and optional basic authentication.
func LoadSourcesFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Sources, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Sources{}, fmt.Errorf("failed to create request: %v", err)
	}
	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  map[string]string{"sources_url": url},
			Level: sentry.LevelError,
		})
		return Sources{}, fmt.Errorf("failed to fetch remote sources: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("remote sources returned status: %d", resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  map[string]string{"sources_url": url},
			Level: sentry.LevelError,
		})
		return Sources{}, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sources{}, fmt.Errorf("failed to read remote sources: %v", err)
	}

	return parseSources(data, url)
}

func parseSources(data []byte, origin string) (Sources, error) {
	var sources Sources
	if err := json.Unmarshal(data, &sources); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  map[string]string{"sources_origin": origin},
			Level: sentry.LevelError,
		})
		return Sources{}, fmt.Errorf("failed to unmarshal JSON: %v", err)
	}
	if sources.Stations == "" {
		return Sources{}, fmt.Errorf("sources document is missing the stations path")
	}
	if len(sources.Routes) == 0 {
		return Sources{}, fmt.Errorf("sources document lists no route databases")
	}
	for _, src := range sources.Routes {
		if src.Tag == "" || src.Path == "" {
			return Sources{}, fmt.Errorf("route source entries need both tag and path (got tag=%q path=%q)", src.Tag, src.Path)
		}
	}
	return sources, nil
}
