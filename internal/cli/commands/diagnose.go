package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/pinglag/pkg/capture"
	"github.com/ccollicutt/pinglag/pkg/config"
	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// maxLineSamples bounds how many offending lines a check lists.
const maxLineSamples = 5

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose    bool
	ConfigFile string
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// lineScan is what a capture looks like line by line.
type lineScan struct {
	Lines     int
	Counts    map[pinglog.LineKind]int
	Samples   []pinglog.Sample
	Summaries []pinglog.PacketSummary

	NoTime  []string // reply lines without a usable time, "line N: text"
	Partial []string // summary-prefixed lines that did not parse
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <capture>",
		Short: "Show how each line of a capture is recognized",
		Long: `Diagnose a capture that does not produce the expected numbers.

This command classifies every line of the capture and reports:
- How many reply, summary and ignored lines were found
- Reply lines without a usable time=<N>ms field
- Summary lines that do not have the full Sent/Received/Lost layout
- Summaries whose received and lost counts do not add up to sent

With --config the configuration and its webhooks are checked too.

Example:
  pinglag diagnose office.log
  pinglag diagnose -v --config pinglag.yaml office.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, args[0], cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Also check this configuration file")

	return cmd
}

func runDiagnose(ctx context.Context, path string, stdin io.Reader, w io.Writer, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check capture existence
	result := checkCaptureExists(path)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Classify every line
	scan, result := checkCaptureReadable(ctx, path, stdin)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Reply lines and samples
	results = append(results, checkReplies(scan, opts)...)

	// 4. Summary line
	results = append(results, checkSummary(scan)...)

	// 5. Optional configuration
	if opts.ConfigFile != "" {
		cfg, result := checkConfigParseable(ctx, opts.ConfigFile)
		results = append(results, result)
		if cfg != nil {
			results = append(results, checkWebhooks(cfg, opts)...)
		}
	}

	printDiagnostics(w, results, opts)
	return nil
}

func checkCaptureExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Capture File",
	}

	if path == capture.StdinName {
		result.Status = "ok"
		result.Message = "Reading standard input"
		return result
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Capture file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Save a ping session with: ping -n 100 <host> > capture.log",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access capture file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "Capture file is empty (0 bytes)"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkCaptureReadable(ctx context.Context, path string, stdin io.Reader) (*lineScan, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Line Classification",
	}

	r := stdin
	if path != capture.StdinName {
		f, err := os.Open(path) // #nosec G304 -- user-provided capture path
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot read capture: %v", err)
			return nil, result
		}
		defer f.Close()
		r = f
	}

	scan, err := scanLines(ctx, r)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read capture: %v", err)
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d line(s) read", scan.Lines)
	for _, kind := range []pinglog.LineKind{
		pinglog.KindReply,
		pinglog.KindReplyNoTime,
		pinglog.KindSummary,
		pinglog.KindSummaryPartial,
		pinglog.KindInert,
	} {
		result.Details = append(result.Details, fmt.Sprintf("%-16s %d", kind.String()+":", scan.Counts[kind]))
	}
	return scan, result
}

// scanLines classifies every line of r the same way the parser does.
func scanLines(ctx context.Context, r io.Reader) (*lineScan, error) {
	scan := &lineScan{Counts: make(map[pinglog.LineKind]int)}

	err := pinglog.ReadLines(ctx, r, func(text string) {
		scan.Lines++
		line := pinglog.Classify(text)
		scan.Counts[line.Kind]++

		switch line.Kind {
		case pinglog.KindReply:
			scan.Samples = append(scan.Samples, line.Sample)
		case pinglog.KindSummary:
			scan.Summaries = append(scan.Summaries, line.Summary)
		case pinglog.KindReplyNoTime:
			scan.NoTime = appendSample(scan.NoTime, scan.Lines, text)
		case pinglog.KindSummaryPartial:
			scan.Partial = appendSample(scan.Partial, scan.Lines, text)
		}
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

func appendSample(lines []string, n int, text string) []string {
	if len(lines) >= maxLineSamples {
		return lines
	}
	return append(lines, fmt.Sprintf("line %d: %s", n, truncate(strings.TrimSuffix(text, "\r"), 80)))
}

func checkReplies(scan *lineScan, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	result := DiagnosticResult{
		Check: "Reply Lines",
	}

	replies := scan.Counts[pinglog.KindReply] + scan.Counts[pinglog.KindReplyNoTime]
	switch {
	case replies == 0:
		result.Status = "error"
		result.Message = "No reply lines found"
		result.Suggests = []string{
			"Reply lines must start with \"Reply\" at the beginning of the line",
			"Only English ping output is recognized",
		}
	case len(scan.Samples) == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("%d reply line(s) but none with a time=<N>ms field", replies)
		result.Details = scan.NoTime
		result.Suggests = []string{
			"Replies reported as time<1ms carry no sample",
		}
	case scan.Counts[pinglog.KindReplyNoTime] > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d reply line(s) have no usable time",
			scan.Counts[pinglog.KindReplyNoTime], replies)
		result.Details = scan.NoTime
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d sample(s) extracted", len(scan.Samples))
		if opts.Verbose {
			above200, above500 := 0, 0
			for _, s := range scan.Samples {
				if s > pinglog.Threshold200ms {
					above200++
				}
				if s > pinglog.Threshold500ms {
					above500++
				}
			}
			result.Details = []string{
				fmt.Sprintf("Above 200 ms: %d", above200),
				fmt.Sprintf("Above 500 ms: %d", above500),
			}
		}
	}

	return append(results, result)
}

func checkSummary(scan *lineScan) []DiagnosticResult {
	results := []DiagnosticResult{}

	result := DiagnosticResult{
		Check: "Summary Line",
	}

	switch len(scan.Summaries) {
	case 0:
		result.Status = "warning"
		result.Message = "No packet summary found; sent and lost counts will be unknown"
		result.Details = scan.Partial
		result.Suggests = []string{
			"The capture may have been cut off before ping finished",
			"Summary lines must look like:     Packets: Sent = 4, Received = 4, Lost = 0 (0% loss),",
		}
		return append(results, result)
	case 1:
		result.Status = "ok"
		result.Message = "Packet summary found"
	default:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d packet summaries found; the last one is used", len(scan.Summaries))
	}

	last := scan.Summaries[len(scan.Summaries)-1]
	result.Details = append(result.Details,
		fmt.Sprintf("Sent = %d, Received = %d, Lost = %d (%g%% loss)",
			last.Sent, last.Received, last.Lost, last.LostPercentage))
	results = append(results, result)

	if len(scan.Partial) > 0 {
		results = append(results, DiagnosticResult{
			Check:   "Partial Summary Lines",
			Status:  "warning",
			Message: fmt.Sprintf("%d summary line(s) could not be parsed and were ignored", scan.Counts[pinglog.KindSummaryPartial]),
			Details: scan.Partial,
		})
	}

	if last.Received+last.Lost != last.Sent {
		results = append(results, DiagnosticResult{
			Check:   "Summary Consistency",
			Status:  "warning",
			Message: fmt.Sprintf("Received + Lost = %d but Sent = %d", last.Received+last.Lost, last.Sent),
			Suggests: []string{
				"The numbers are reported as-is; check the capture was not edited",
			},
		})
	}

	return results
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Captures: %d", len(cfg.Captures)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== pinglag Capture Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nThe capture will not produce useful results until the errors are fixed.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nThe capture is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nCapture looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if len(issues) > 0 {
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
