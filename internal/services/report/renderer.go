// Package report renders the aggregated research report into a shareable
// HTML document.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"html/template"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/report"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// Renderer builds the HTML report document for a completed query and stores
// it on the report row as a base64 data URL
type Renderer struct {
	queries     research.Repository
	sentiments  sentiment.Repository
	competitors competitor.Repository
	trends      trend.Repository
	reports     report.Repository
	tmpl        *template.Template
	log         *logger.Logger

	now func() time.Time
}

// NewRenderer creates the document renderer
func NewRenderer(
	queries research.Repository,
	sentiments sentiment.Repository,
	competitors competitor.Repository,
	trends trend.Repository,
	reports report.Repository,
) *Renderer {
	return &Renderer{
		queries:     queries,
		sentiments:  sentiments,
		competitors: competitors,
		trends:      trends,
		reports:     reports,
		tmpl:        template.Must(template.New("report").Funcs(templateFuncs).Parse(reportTemplate)),
		log:         logger.Get().With("component", "report_renderer"),
		now:         time.Now,
	}
}

type templateData struct {
	Query       *research.Query
	Report      *report.Report
	Sentiments  []sentiment.Record
	Competitors []competitor.Record
	Trends      []trend.Record
	GeneratedAt string
	Summary     string
}

// Render builds the document for the query and attaches its data URL to the
// stored report. Returns the URL.
func (r *Renderer) Render(ctx context.Context, queryID uuid.UUID) (string, error) {
	query, err := r.queries.GetByID(ctx, queryID)
	if err != nil {
		return "", err
	}

	rep, err := r.reports.GetByQuery(ctx, queryID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return "", err
	}

	sentiments, err := r.sentiments.ListByQuery(ctx, queryID)
	if err != nil {
		return "", err
	}
	competitors, err := r.competitors.ListByQuery(ctx, queryID)
	if err != nil {
		return "", err
	}
	trends, err := r.trends.ListByQuery(ctx, queryID)
	if err != nil {
		return "", err
	}

	summary := "Comprehensive market analysis completed with sentiment, competitor, and trend data."
	if rep != nil && rep.Summary != "" {
		summary = rep.Summary
	}

	var buf bytes.Buffer
	err = r.tmpl.Execute(&buf, templateData{
		Query:       query,
		Report:      rep,
		Sentiments:  sentiments,
		Competitors: competitors,
		Trends:      trends,
		GeneratedAt: r.now().Format("2006-01-02"),
		Summary:     summary,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render report template")
	}

	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	// The URL is only persisted when the aggregator stored a report row
	if rep != nil {
		if err := r.reports.UpdateDocumentURL(ctx, queryID, url); err != nil {
			return "", err
		}
	}

	r.log.Infow("Report document rendered",
		"query_id", queryID,
		"bytes", buf.Len())
	return url, nil
}

var templateFuncs = template.FuncMap{
	"pct": func(confidence float64) int {
		return int(confidence*100 + 0.5)
	},
	"upper": func(s research.SubjectType) string {
		return map[research.SubjectType]string{
			research.SubjectProduct: "PRODUCT",
			research.SubjectCompany: "COMPANY",
		}[s]
	},
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Market Research Report - {{.Query.SubjectText}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; color: #333; }
        .header { text-align: center; border-bottom: 2px solid #4285f4; padding-bottom: 20px; margin-bottom: 30px; }
        .section { margin-bottom: 30px; }
        .section h2 { color: #4285f4; border-left: 4px solid #4285f4; padding-left: 10px; }
        .metric { display: inline-block; background: #f5f5f5; padding: 10px; margin: 5px; border-radius: 5px; }
        .competitor { border: 1px solid #ddd; padding: 15px; margin: 10px 0; border-radius: 5px; }
        .insight { background: #e8f4fd; padding: 15px; margin: 10px 0; border-radius: 5px; border-left: 4px solid #4285f4; }
        .recommendation { background: #fff3cd; padding: 15px; margin: 10px 0; border-radius: 5px; border-left: 4px solid #ffc107; }
        .positive { color: #28a745; }
        .negative { color: #dc3545; }
        .neutral { color: #6c757d; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #f5f5f5; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Market Research Report</h1>
        <h2>{{.Query.SubjectText}}</h2>
        <p>Query Type: {{upper .Query.SubjectType}} | Generated: {{.GeneratedAt}}</p>
    </div>

    <div class="section">
        <h2>Executive Summary</h2>
        <p>{{.Summary}}</p>
    </div>

    <div class="section">
        <h2>Sentiment Analysis</h2>
        <div class="metrics">
            {{range .Sentiments}}
            <div class="metric">
                <strong>{{.Source}}</strong><br>
                <span class="{{.Sentiment}}">{{.Sentiment}}</span> ({{pct .Confidence}}%)
            </div>
            {{end}}
        </div>
        <table>
            <tr><th>Source</th><th>Sentiment</th><th>Confidence</th><th>Content</th></tr>
            {{range .Sentiments}}
            <tr>
                <td>{{.Source}}</td>
                <td class="{{.Sentiment}}">{{.Sentiment}}</td>
                <td>{{pct .Confidence}}%</td>
                <td>{{.Content}}</td>
            </tr>
            {{end}}
        </table>
    </div>

    <div class="section">
        <h2>Competitor Analysis</h2>
        {{range .Competitors}}
        <div class="competitor">
            <h3>{{.CompetitorName}}</h3>
            <p>{{if .Price}}<strong>Price:</strong> ${{.Price}}{{end}}{{if .Rating}} | <strong>Rating:</strong> {{.Rating}}/5.0{{end}}</p>
            <p><strong>Features:</strong> {{range $i, $f := .Features}}{{if $i}}, {{end}}{{$f}}{{end}}</p>
            {{if .URL}}<p><strong>URL:</strong> <a href="{{.URL}}">{{.URL}}</a></p>{{end}}
        </div>
        {{end}}
    </div>

    <div class="section">
        <h2>Market Trends</h2>
        <table>
            <tr><th>Keyword</th><th>Search Volume</th><th>Trend</th><th>Time Period</th></tr>
            {{range .Trends}}
            <tr>
                <td>{{.Keyword}}</td>
                <td>{{if .SearchVolume}}{{.SearchVolume}}{{end}}</td>
                <td>{{.Direction}}</td>
                <td>{{.TimePeriod}}</td>
            </tr>
            {{end}}
        </table>
    </div>

    {{if .Report}}
    <div class="section">
        <h2>Key Insights</h2>
        {{range .Report.Insights}}
        <div class="insight">
            <h3>{{.Title}}</h3>
            <p><strong>Category:</strong> {{.Category}} | <strong>Priority:</strong> {{.Priority}}</p>
            <p>{{.Description}}</p>
            {{if .Impact}}<p><strong>Expected Impact:</strong> {{.Impact}}</p>{{end}}
        </div>
        {{end}}
    </div>

    <div class="section">
        <h2>Strategic Recommendations</h2>
        {{range .Report.Recommendations}}
        <div class="recommendation">
            <h3>{{.Action}}</h3>
            <p><strong>Priority:</strong> {{.Priority}} | <strong>Timeline:</strong> {{.Timeline}}</p>
            <p><strong>Rationale:</strong> {{.Rationale}}</p>
        </div>
        {{end}}
    </div>
    {{end}}

    <div class="section">
        <h2>Conclusion</h2>
        <p>This comprehensive market research analysis provides actionable insights for {{.Query.SubjectText}}.
        The data collected from sentiment analysis, competitor monitoring, and trend detection offers a
        complete picture of the current market landscape and opportunities for strategic positioning.</p>
    </div>
</body>
</html>
`
