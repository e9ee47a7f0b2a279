// Package report prints command results as styled text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"sigs.k8s.io/yaml"

	"github.com/HaPhanBaoMinh/sre/internal/config"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/ui/styles"
	"github.com/HaPhanBaoMinh/sre/internal/ui/widgets"
)

const (
	gaugeWidth = 20
	podRule    = 50
)

type Printer struct {
	w      io.Writer
	format string
}

func NewPrinter(w io.Writer, format string) *Printer {
	if format == "" {
		format = config.OutputText
	}
	return &Printer{w: w, format: format}
}

func (p *Printer) Deployments(views []domain.DeploymentView) error {
	if p.format != config.OutputText {
		return p.encode(views)
	}
	if len(views) == 0 {
		return p.line(styles.Faint.Render("No deployments found"))
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("NAMESPACE", "NAME", "READY", "AVAILABLE", "DESIRED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, v := range views {
		t.Row(
			v.Namespace,
			v.Name,
			styles.Replicas(v.Ready, v.Desired).Render(fmt.Sprintf("%d/%d", v.Ready, v.Desired)),
			fmt.Sprint(v.Available),
			fmt.Sprint(v.Desired),
		)
	}
	return p.line(t.String())
}

func (p *Printer) Deployment(v *domain.DeploymentView) error {
	if p.format != config.OutputText {
		return p.encode(v)
	}
	var b strings.Builder
	writeDeployment(&b, v)
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) Report(r *domain.Report) error {
	if p.format != config.OutputText {
		return p.encode(r)
	}
	var b strings.Builder
	writeDeployment(&b, &r.Deployment)
	b.WriteString("\n")
	for _, pod := range r.Pods {
		writePod(&b, pod)
	}
	for _, n := range r.Notes {
		label := lo.Ternary(n.Severity == domain.SeverityError, "Error", "Warning")
		fmt.Fprintf(&b, "%s [%s]: %s\n", styles.Severity(n.Severity).Render(label), n.Stage, n.Message)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

type scaleView struct {
	Deployment string             `json:"deployment"`
	Namespace  string             `json:"namespace"`
	Target     int32              `json:"target"`
	Observed   int32              `json:"observed"`
	Status     domain.ScaleStatus `json:"status"`
	Elapsed    string             `json:"elapsed"`
	Polls      int                `json:"polls"`
}

func (p *Printer) ScaleOutcome(o *domain.ScaleOutcome) error {
	elapsed := o.Elapsed.Round(time.Millisecond)
	if p.format != config.OutputText {
		return p.encode(scaleView{
			Deployment: o.Deployment,
			Namespace:  o.Namespace,
			Target:     o.Target,
			Observed:   o.Observed,
			Status:     o.Status,
			Elapsed:    elapsed.String(),
			Polls:      o.Polls,
		})
	}
	if o.Status == domain.ScaleConverged {
		return p.line(styles.Good.Render(fmt.Sprintf("Successfully scaled %s/%s to %d replicas", o.Namespace, o.Deployment, o.Target)) +
			" " + styles.Faint.Render(fmt.Sprintf("(%d polls, %s)", o.Polls, elapsed)))
	}
	return p.line(styles.Warn.Render(fmt.Sprintf("Partially scaled %s/%s: %d/%d replicas after %s, timed out",
		o.Namespace, o.Deployment, o.Observed, o.Target, elapsed)))
}

// Error prints a hard failure. Structured formats get {"error": "..."}.
func (p *Printer) Error(cause error) error {
	if p.format != config.OutputText {
		return p.encode(map[string]string{"error": cause.Error()})
	}
	return p.line(styles.Danger.Render("Error:") + " " + cause.Error())
}

func (p *Printer) encode(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	if p.format == config.OutputYAML {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return errors.Wrap(err, "encoding output as yaml")
		}
		_, err = p.w.Write(data)
		return err
	}
	return p.line(string(data))
}

func (p *Printer) line(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

func writeDeployment(b *strings.Builder, v *domain.DeploymentView) {
	fmt.Fprintf(b, "%s %s, %s %s\n",
		styles.Title.Render("Deployment:"), v.Name, styles.Title.Render("Namespace:"), v.Namespace)
	fmt.Fprintf(b, "Replicas: Desired=%d, Ready=%s, Available=%d\n",
		v.Desired, styles.Replicas(v.Ready, v.Desired).Render(fmt.Sprint(v.Ready)), v.Available)
	if len(v.Containers) == 0 {
		return
	}
	b.WriteString("Containers:\n")
	for _, c := range v.Containers {
		fmt.Fprintf(b, "  %s (%s)\n", c.Name, c.Image)
		fmt.Fprintf(b, "    Requests: CPU=%s, Memory=%s\n", c.CPURequest, c.MemoryRequest)
		fmt.Fprintf(b, "    Limits: CPU=%s, Memory=%s\n", c.CPULimit, c.MemoryLimit)
	}
}

func writePod(b *strings.Builder, pod domain.PodView) {
	b.WriteString(styles.Title.Render("Pod Info:") + "\n")
	fmt.Fprintf(b, "Name: %s, Namespace: %s\n", pod.Name, pod.Namespace)
	fmt.Fprintf(b, "Node: %s\n", orNA(pod.Node))
	if pod.StartTime != nil {
		fmt.Fprintf(b, "Started: %s\n", pod.StartTime.Format(time.RFC3339))
	}
	fmt.Fprintf(b, "Phase: %s, Reason: %s\n", styles.Phase(pod.Phase).Render(string(pod.Phase)), orNA(pod.Reason))
	conditions := lo.Map(pod.Conditions, func(c domain.Condition, _ int) string {
		return c.Type + ":" + c.Status
	})
	fmt.Fprintf(b, "Conditions: %s\n", strings.Join(conditions, ", "))
	if len(pod.ContainerIssues) > 0 {
		fmt.Fprintf(b, "Container Issues: %s\n", styles.Danger.Render(strings.Join(pod.ContainerIssues, ", ")))
	}
	for i, c := range pod.Containers {
		fmt.Fprintf(b, "Container %d: %s (%s)\n", i+1, c.Name, c.Image)
		fmt.Fprintf(b, "  Resource Requests: CPU=%s, Memory=%s\n", c.CPURequest, c.MemoryRequest)
		fmt.Fprintf(b, "  Resource Limits: CPU=%s, Memory=%s\n", c.CPULimit, c.MemoryLimit)
		if !c.CPUUsage.IsPresent() && !c.MemoryUsage.IsPresent() {
			continue
		}
		fmt.Fprintf(b, "  Current Usage: CPU=%s%s, Memory=%s%s\n",
			c.CPUUsage.OrElse(domain.NotAvailable), percentSuffix(c.CPUUtilization.Get()),
			c.MemoryUsage.OrElse(domain.NotAvailable), percentSuffix(c.MemoryUtilization.Get()))
		if g := widgets.Gauge(c.CPUUtilization, gaugeWidth); g != "" {
			fmt.Fprintf(b, "  CPU    %s\n", styles.Faint.Render(g))
		}
		if g := widgets.Gauge(c.MemoryUtilization, gaugeWidth); g != "" {
			fmt.Fprintf(b, "  Memory %s\n", styles.Faint.Render(g))
		}
	}
	b.WriteString(strings.Repeat("-", podRule) + "\n")
}

func percentSuffix(pct float64, ok bool) string {
	if !ok {
		return ""
	}
	return " (" + widgets.Percent(pct) + ")"
}

func orNA(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}
