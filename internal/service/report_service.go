package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
)

// ReportService renders assessment results as a standalone HTML document.
// Rendering is deterministic: identical responses yield byte-identical
// output, so reports can be diffed between exports.
type ReportService struct {
	assessments *AssessmentService
	tmpl        *template.Template
}

// NewReportService creates a new ReportService.
func NewReportService(assessments *AssessmentService) *ReportService {
	return &ReportService{
		assessments: assessments,
		tmpl:        template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// reportData is the template input for one rendered report.
type reportData struct {
	Summary       *AssessmentSummary
	CompletionPct float64
	Scores        *ScoreReport
	Gaps          []gapRow
}

type gapRow struct {
	ControlID       string
	Title           string
	CurrentLevel    string
	TargetLevel     string
	GapMagnitude    int
	Priority        string
	Recommendations []string
}

// Render produces the HTML maturity report of an assessment.
func (s *ReportService) Render(ctx context.Context, id, orgID uuid.UUID) ([]byte, error) {
	summary, err := s.assessments.GetAssessment(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	scores, err := s.assessments.GetScores(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	gaps, err := s.assessments.GetGaps(ctx, id, orgID, "")
	if err != nil {
		return nil, err
	}

	rows := make([]gapRow, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, gapRow{
			ControlID:       g.ControlID,
			Title:           g.Title,
			CurrentLevel:    string(g.CurrentLevel),
			TargetLevel:     string(g.TargetLevel),
			GapMagnitude:    g.GapMagnitude,
			Priority:        string(g.Priority),
			Recommendations: g.Recommendations,
		})
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, reportData{
		Summary:       summary,
		CompletionPct: summary.CompletionRatio * 100,
		Scores:        scores,
		Gaps:          rows,
	}); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Rapport de maturité — {{.Summary.Assessment.Name}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1a1a2e; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f0f0f5; }
.critical { color: #b00020; font-weight: bold; }
.high { color: #d2691e; font-weight: bold; }
.medium { color: #b8860b; }
.low { color: #2e7d32; }
</style>
</head>
<body>
<h1>Rapport de maturité sécurité</h1>
<p>
<strong>Évaluation :</strong> {{.Summary.Assessment.Name}}<br>
<strong>Référentiel :</strong> {{.Summary.Framework.Name}} ({{.Summary.Framework.Version}})<br>
<strong>Statut :</strong> {{.Summary.Assessment.Status}}<br>
<strong>Score global :</strong> {{printf "%.2f" .Summary.OverallScore}} ({{.Summary.OverallLevel}})<br>
<strong>Complétude :</strong> {{printf "%.0f" .CompletionPct}}&nbsp;%
</p>

<h2>Scores par domaine</h2>
<table>
<tr><th>Domaine</th><th>Score actuel</th><th>Score cible</th><th>Écart</th><th>Niveau</th><th>Contrôles évalués</th></tr>
{{range .Scores.Branches}}
<tr>
<td>{{.BranchID}}</td>
<td>{{printf "%.2f" .CurrentScore}}</td>
<td>{{printf "%.2f" .TargetScore}}</td>
<td>{{printf "%.2f" .GapScore}}</td>
<td>{{.MaturityLevel}}</td>
<td>{{.AssessedLeaves}}/{{.TotalLeaves}}</td>
</tr>
{{end}}
</table>

<h2>Écarts identifiés</h2>
{{if .Gaps}}
<table>
<tr><th>Contrôle</th><th>Intitulé</th><th>Actuel</th><th>Cible</th><th>Écart</th><th>Priorité</th><th>Recommandations</th></tr>
{{range .Gaps}}
<tr>
<td>{{.ControlID}}</td>
<td>{{.Title}}</td>
<td>{{.CurrentLevel}}</td>
<td>{{.TargetLevel}}</td>
<td>{{.GapMagnitude}}</td>
<td class="{{.Priority}}">{{.Priority}}</td>
<td>{{range .Recommendations}}{{.}}<br>{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>Aucun écart de maturité identifié sur les contrôles évalués.</p>
{{end}}
</body>
</html>
`
