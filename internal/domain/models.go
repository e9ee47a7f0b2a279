package domain

import (
	"time"

	"github.com/samber/mo"
)

// NotAvailable is printed for requests/limits that are not set.
const NotAvailable = "N/A"

type PodPhase string

const (
	PodPending   PodPhase = "Pending"
	PodRunning   PodPhase = "Running"
	PodSucceeded PodPhase = "Succeeded"
	PodFailed    PodPhase = "Failed"
	PodUnknown   PodPhase = "Unknown"
)

type OwnerRef struct {
	Kind       string
	Name       string
	Controller bool
}

// Resources holds quantities in cluster notation ("250m", "128Mi"). None = not set.
type Resources struct {
	CPU    mo.Option[string]
	Memory mo.Option[string]
}

type Container struct {
	Name     string
	Image    string
	Requests Resources
	Limits   Resources
}

type Deployment struct {
	Name       string
	Namespace  string
	Desired    int32
	Ready      int32
	Available  int32
	Created    time.Time
	Containers []Container
}

type ReplicaSet struct {
	Name      string
	Namespace string
	Owners    []OwnerRef
}

type Condition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type ContainerStateKind string

const (
	StateRunning    ContainerStateKind = "Running"
	StateWaiting    ContainerStateKind = "Waiting"
	StateTerminated ContainerStateKind = "Terminated"
)

type ContainerState struct {
	Name   string
	State  ContainerStateKind
	Reason string // only for Waiting/Terminated
}

type Pod struct {
	Name            string
	Namespace       string
	NodeName        string
	Owners          []OwnerRef
	Phase           PodPhase
	Reason          string
	Created         time.Time
	Conditions      []Condition
	ContainerStates []ContainerState
	Containers      []Container
}

type UsageSample struct {
	Namespace string
	Pod       string
	Container string
	CPU       string // "12345678n", "250m"
	Memory    string // "104857Ki"
}

// -------- views --------

type ContainerView struct {
	Name          string `json:"name"`
	Image         string `json:"image"`
	CPURequest    string `json:"cpuRequest"`
	CPULimit      string `json:"cpuLimit"`
	MemoryRequest string `json:"memoryRequest"`
	MemoryLimit   string `json:"memoryLimit"`

	CPUUsage          mo.Option[string]  `json:"cpuUsage"`
	MemoryUsage       mo.Option[string]  `json:"memoryUsage"`
	CPUUtilization    mo.Option[float64] `json:"cpuUtilization"`    // percent of request
	MemoryUtilization mo.Option[float64] `json:"memoryUtilization"` // percent of request
}

type PodView struct {
	Name            string          `json:"name"`
	Namespace       string          `json:"namespace"`
	Node            string          `json:"node,omitempty"`
	Phase           PodPhase        `json:"phase"`
	Reason          string          `json:"reason,omitempty"`
	StartTime       *time.Time      `json:"startTime,omitempty"`
	Conditions      []Condition     `json:"conditions"`
	ContainerIssues []string        `json:"containerIssues,omitempty"`
	Containers      []ContainerView `json:"containers"`
}

type PodStatusSet struct {
	Pods []PodView
	// MetricsError is set when usage metrics could not be fetched.
	MetricsError mo.Option[string]
}

type DeploymentView struct {
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace"`
	Desired    int32           `json:"desired"`
	Ready      int32           `json:"ready"`
	Available  int32           `json:"available"`
	Containers []ContainerView `json:"containers,omitempty"`
}

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Note struct {
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage"`
	Message  string   `json:"message"`
}

type Report struct {
	Deployment DeploymentView `json:"deployment"`
	Pods       []PodView      `json:"pods"`
	Notes      []Note         `json:"notes,omitempty"`
}

func (r *Report) AddNote(sev Severity, stage, msg string) {
	r.Notes = append(r.Notes, Note{Severity: sev, Stage: stage, Message: msg})
}

// Result classifies a report for the exit code.
func (r *Report) Result() ResultKind {
	kind := ResultSuccess
	for _, n := range r.Notes {
		if n.Severity == SeverityError {
			return ResultFailed
		}
		kind = ResultDegraded
	}
	return kind
}

type ScaleStatus string

const (
	ScaleConverged ScaleStatus = "Converged"
	ScaleTimedOut  ScaleStatus = "TimedOut"
)

type ScaleOutcome struct {
	Deployment string        `json:"deployment"`
	Namespace  string        `json:"namespace"`
	Target     int32         `json:"target"`
	Observed   int32         `json:"observed"`
	Status     ScaleStatus   `json:"status"`
	Elapsed    time.Duration `json:"elapsed"`
	Polls      int           `json:"polls"`
}

func (o *ScaleOutcome) Result() ResultKind {
	if o.Status == ScaleConverged {
		return ResultSuccess
	}
	return ResultPartial
}

type ResultKind string

const (
	ResultSuccess  ResultKind = "success"
	ResultDegraded ResultKind = "degraded"
	ResultPartial  ResultKind = "partial"
	ResultFailed   ResultKind = "failed"
)

// ExitCode maps a result onto the process exit status.
func (k ResultKind) ExitCode() int {
	switch k {
	case ResultFailed:
		return 1
	case ResultPartial:
		return 2
	default:
		return 0
	}
}
