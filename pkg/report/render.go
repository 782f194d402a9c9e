package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/metrics"
)

// Report is the complete machine-readable run report.
type Report struct {
	GeneratedAt     time.Time             `json:"generatedAt"`
	Scenario        string                `json:"scenario"`
	TestType        string                `json:"testType"`
	Stats           *metrics.Stats        `json:"stats"`
	Verdict         Verdict               `json:"verdict"`
	Trend           *TrendAnalysis        `json:"trend,omitempty"`
	TrendLog        []metrics.TrendSample `json:"trendLog,omitempty"`
	Recommendations []string              `json:"recommendations"`
}

// Build assembles a report from a snapshot, its verdict, and an optional
// trend log.
func Build(scenario, testType string, stats *metrics.Stats, trendLog []metrics.TrendSample) *Report {
	rep := &Report{
		GeneratedAt:     time.Now(),
		Scenario:        scenario,
		TestType:        testType,
		Stats:           stats,
		Verdict:         Evaluate(stats, testType),
		TrendLog:        trendLog,
		Recommendations: Recommendations(stats),
	}
	if trend, err := AnalyzeTrend(trendLog); err == nil {
		rep.Trend = &trend
	}
	return rep
}

// Writer renders report artifacts into a results directory with timestamped
// file names.
type Writer struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// NewWriter creates the results directory if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Writer{dir: dir, log: logger, now: time.Now}, nil
}

// WriteAll renders the HTML report, the CSV export, and the JSON report,
// returning the written paths.
func (w *Writer) WriteAll(rep *Report) ([]string, error) {
	stamp := w.now().Format("20060102_150405")
	base := strings.ReplaceAll(strings.ToLower(rep.TestType), " ", "_")

	htmlPath := filepath.Join(w.dir, fmt.Sprintf("%s_test_report_%s.html", base, stamp))
	csvPath := filepath.Join(w.dir, fmt.Sprintf("%s_test_%s.csv", base, stamp))
	jsonPath := filepath.Join(w.dir, fmt.Sprintf("%s_test_%s.json", base, stamp))

	html, err := RenderHTML(rep)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(htmlPath, []byte(html), 0o640); err != nil {
		return nil, fmt.Errorf("write html report: %w", err)
	}

	f, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("write csv export: %w", err)
	}
	if err := WriteCSV(f, rep.Stats); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o640); err != nil {
		return nil, fmt.Errorf("write json report: %w", err)
	}

	paths := []string{htmlPath, csvPath, jsonPath}
	w.log.Info("report artifacts written",
		zap.String("dir", w.dir),
		zap.Strings("files", paths))
	return paths, nil
}

// WriteCSV exports one row per endpoint plus a TOTAL row.
func WriteCSV(out io.Writer, stats *metrics.Stats) error {
	cw := csv.NewWriter(out)
	header := []string{
		"Endpoint", "Requests", "Failures", "RPS",
		"Avg_Response_Time_ms", "Min_Response_Time_ms", "Max_Response_Time_ms",
		"Error_Rate", "P95_Response_Time_ms", "P99_Response_Time_ms",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.Write(csvRow("TOTAL", stats.Total)); err != nil {
		return fmt.Errorf("write csv total: %w", err)
	}
	for _, e := range stats.Endpoints {
		if err := cw.Write(csvRow(e.Name, e)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(name string, e metrics.EndpointStats) []string {
	return []string{
		name,
		strconv.FormatInt(e.Requests, 10),
		strconv.FormatInt(e.Failures, 10),
		strconv.FormatFloat(e.RPS, 'f', 2, 64),
		strconv.FormatFloat(ms(e.AvgLatency), 'f', 1, 64),
		strconv.FormatFloat(ms(e.MinLatency), 'f', 1, 64),
		strconv.FormatFloat(ms(e.MaxLatency), 'f', 1, 64),
		strconv.FormatFloat(e.FailureRate, 'f', 4, 64),
		strconv.FormatFloat(ms(e.ApproxP95), 'f', 1, 64),
		strconv.FormatFloat(ms(e.ApproxP99), 'f', 1, 64),
	}
}

type endpointRow struct {
	Name        string
	Requests    int64
	RPS         string
	AvgMs       string
	MaxMs       string
	ErrorRate   string
	Status      string
	StatusClass string
}

type objectiveRow struct {
	Metric  string
	Actual  string
	Target  string
	Verdict string
}

type htmlData struct {
	Title           string
	GeneratedAt     string
	TotalRequests   int64
	RPS             string
	AvgMs           string
	ErrorRate       string
	ErrorRateClass  string
	ApproxP95       string
	ApproxP99       string
	Endpoints       []endpointRow
	Recommendations []string
	Objectives      []objectiveRow
	Overall         string
	Trend           *TrendAnalysis
	TrendChange     string
	TrendErrChange  string
}

// RenderHTML renders the human-readable report page.
func RenderHTML(rep *Report) (string, error) {
	total := rep.Stats.Total
	data := htmlData{
		Title:          fmt.Sprintf("%s Test Report", capitalize(rep.TestType)),
		GeneratedAt:    rep.GeneratedAt.Format("2006-01-02 15:04:05"),
		TotalRequests:  total.Requests,
		RPS:            fmt.Sprintf("%.1f", total.RPS),
		AvgMs:          fmt.Sprintf("%.0fms", ms(total.AvgLatency)),
		ErrorRate:      fmt.Sprintf("%.2f%%", total.FailureRate*100),
		ErrorRateClass: errorRateClass(total.FailureRate),
		ApproxP95:      fmt.Sprintf("%.0fms", ms(total.ApproxP95)),
		ApproxP99:      fmt.Sprintf("%.0fms", ms(total.ApproxP99)),
		Overall:        rep.Verdict.Overall,
		Trend:          rep.Trend,
	}
	if rep.Trend != nil {
		data.TrendChange = fmt.Sprintf("%+.1f%%", rep.Trend.ResponseTimeChangePct)
		data.TrendErrChange = fmt.Sprintf("%+.3f", rep.Trend.ErrorRateChange)
	}
	for _, e := range rep.Stats.Endpoints {
		status := EndpointStatus(e)
		data.Endpoints = append(data.Endpoints, endpointRow{
			Name:        e.Name,
			Requests:    e.Requests,
			RPS:         fmt.Sprintf("%.1f", e.RPS),
			AvgMs:       fmt.Sprintf("%.0f", ms(e.AvgLatency)),
			MaxMs:       fmt.Sprintf("%.0f", ms(e.MaxLatency)),
			ErrorRate:   fmt.Sprintf("%.2f%%", e.FailureRate*100),
			Status:      capitalize(status),
			StatusClass: "status-" + status,
		})
	}
	data.Recommendations = rep.Recommendations
	for _, o := range rep.Verdict.Objectives {
		verdict := "Failed"
		if o.Passed {
			verdict = "Passed"
		}
		data.Objectives = append(data.Objectives, objectiveRow{
			Metric:  o.Metric,
			Actual:  fmt.Sprintf("%.1f%s", o.Actual, o.Unit),
			Target:  fmt.Sprintf("%s %.0f%s", o.Comparator, o.Target, o.Unit),
			Verdict: verdict,
		})
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return sb.String(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func errorRateClass(rate float64) string {
	switch {
	case rate < 0.01:
		return "status-good"
	case rate < 0.05:
		return "status-warning"
	default:
		return "status-poor"
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
.container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; }
.header { text-align: center; color: #333; border-bottom: 2px solid #007bff; padding-bottom: 20px; }
.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 20px 0; }
.metric-card { background: #f8f9fa; padding: 15px; border-radius: 5px; border-left: 4px solid #007bff; }
.metric-value { font-size: 24px; font-weight: bold; color: #007bff; }
.metric-label { color: #666; margin-top: 5px; }
.endpoint-table { width: 100%; border-collapse: collapse; margin: 20px 0; }
.endpoint-table th, .endpoint-table td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
.endpoint-table th { background-color: #f8f9fa; }
.status-good { color: #28a745; }
.status-warning { color: #ffc107; }
.status-poor { color: #dc3545; }
.recommendations { background: #e9ecef; padding: 15px; border-radius: 5px; margin: 20px 0; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>{{.Title}}</h1>
<p>Generated on {{.GeneratedAt}} &mdash; overall: {{.Overall}}</p>
</div>
<div class="summary">
<div class="metric-card"><div class="metric-value">{{.TotalRequests}}</div><div class="metric-label">Total Requests</div></div>
<div class="metric-card"><div class="metric-value">{{.RPS}}</div><div class="metric-label">Requests/Second</div></div>
<div class="metric-card"><div class="metric-value">{{.AvgMs}}</div><div class="metric-label">Avg Response Time</div></div>
<div class="metric-card"><div class="metric-value {{.ErrorRateClass}}">{{.ErrorRate}}</div><div class="metric-label">Error Rate</div></div>
<div class="metric-card"><div class="metric-value">{{.ApproxP95}}</div><div class="metric-label">95th Percentile (approx)</div></div>
<div class="metric-card"><div class="metric-value">{{.ApproxP99}}</div><div class="metric-label">99th Percentile (approx)</div></div>
</div>
<h2>Endpoint Performance</h2>
<table class="endpoint-table">
<thead><tr><th>Endpoint</th><th>Requests</th><th>RPS</th><th>Avg Time (ms)</th><th>Max Time (ms)</th><th>Error Rate</th><th>Status</th></tr></thead>
<tbody>
{{range .Endpoints}}<tr><td>{{.Name}}</td><td>{{.Requests}}</td><td>{{.RPS}}</td><td>{{.AvgMs}}</td><td>{{.MaxMs}}</td><td>{{.ErrorRate}}</td><td class="{{.StatusClass}}">{{.Status}}</td></tr>
{{end}}</tbody>
</table>
{{if .Trend}}
<div class="recommendations">
<h3>Endurance Trend</h3>
<p>Average response time change: {{.TrendChange}}; error rate change: {{.TrendErrChange}} ({{.Trend.Classification}}, {{.Trend.Samples}} samples)</p>
</div>
{{end}}
<div class="recommendations">
<h3>Performance Recommendations</h3>
<ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>
</div>
<div class="recommendations">
<h3>Test Objectives vs Results</h3>
<ul>{{range .Objectives}}<li><strong>{{.Metric}}:</strong> {{.Actual}} (Target: {{.Target}}) {{.Verdict}}</li>{{end}}</ul>
</div>
</div>
</body>
</html>
`))
