// Package cli wires the cluster adapter, the engine components and the printers into cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HaPhanBaoMinh/sre/internal/clock"
	"github.com/HaPhanBaoMinh/sre/internal/config"
	"github.com/HaPhanBaoMinh/sre/internal/deployments"
	"github.com/HaPhanBaoMinh/sre/internal/diagnose"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
	kk "github.com/HaPhanBaoMinh/sre/internal/infrastructure/k8s"
	"github.com/HaPhanBaoMinh/sre/internal/infrastructure/mock"
	"github.com/HaPhanBaoMinh/sre/internal/logging"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
	"github.com/HaPhanBaoMinh/sre/internal/podstatus"
	"github.com/HaPhanBaoMinh/sre/internal/report"
)

// RepoFactory builds the cluster adapter once flags and config are resolved.
type RepoFactory func(cfg *config.Config, useMock bool, log *zap.Logger) (domain.ClusterRepo, error)

func DefaultRepoFactory(cfg *config.Config, useMock bool, log *zap.Logger) (domain.ClusterRepo, error) {
	if useMock {
		return mock.New(log), nil
	}
	return kk.New(cfg.Kubeconfig, cfg.Context, cfg.RequestTimeout, log)
}

type flags struct {
	configPath     string
	kubeconfig     string
	context        string
	logLevel       string
	output         string
	requestTimeout time.Duration
	mock           bool
}

// session is what every subcommand works with, built in the root's PersistentPreRunE.
type session struct {
	out, errOut io.Writer
	factory     RepoFactory
	clock       clock.Clock

	cfg      *config.Config
	log      *zap.Logger
	repo     domain.ClusterRepo
	resolver *ownership.Resolver
	printer  *report.Printer
	result   domain.ResultKind
}

func (rt *session) deploymentService() *deployments.Service {
	return deployments.NewService(rt.repo, rt.resolver, rt.log)
}

func (rt *session) aggregator() *diagnose.Aggregator {
	return diagnose.NewAggregator(rt.repo, rt.resolver, podstatus.NewAssembler(rt.repo, rt.log), rt.log)
}

func newRootCommand(rt *session) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "sre",
		Short:         "Inspect, scale and diagnose Kubernetes deployments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd, &f)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", config.DefaultPath(), "path to the config file")
	pf.StringVar(&f.kubeconfig, "kubeconfig", "", "path to kubeconfig (default: in-cluster, then $KUBECONFIG or ~/.kube/config)")
	pf.StringVar(&f.context, "context", "", "kube context")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error, none")
	pf.StringVarP(&f.output, "output", "o", "", "output format: text, json, yaml")
	pf.DurationVar(&f.requestTimeout, "request-timeout", 0, "timeout for each cluster API request")
	pf.BoolVar(&f.mock, "mock", false, "use the built-in demo cluster")

	root.AddCommand(
		newListCommand(rt),
		newScaleCommand(rt),
		newInfoCommand(rt),
		newDiagnosticCommand(rt),
		newBrowseCommand(rt),
	)
	return root
}

func (rt *session) setup(cmd *cobra.Command, f *flags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	pf := cmd.Flags()
	if pf.Changed("kubeconfig") {
		cfg.Kubeconfig = f.kubeconfig
	}
	if pf.Changed("context") {
		cfg.Context = f.context
	}
	if pf.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if pf.Changed("output") {
		cfg.Output = f.output
	}
	if pf.Changed("request-timeout") {
		cfg.RequestTimeout = f.requestTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt.cfg = cfg
	rt.printer = report.NewPrinter(rt.out, cfg.Output)

	rt.log = logging.New(cfg.Logging.Level, rt.errOut)
	logging.RedirectKlog(rt.log)

	repo, err := rt.factory(cfg, f.mock, rt.log)
	if err != nil {
		return errors.Mark(err, domain.ErrUpstream)
	}
	if err := repo.CheckConnectivity(cmd.Context()); err != nil {
		return errors.Wrap(err, "cluster is not reachable")
	}
	rt.repo = repo
	rt.resolver = ownership.NewResolver(repo, rt.log)
	rt.log.Debug("ready", zap.String("command", cmd.Name()), zap.Bool("mock", f.mock))
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	return execute(ctx, args, out, errOut, DefaultRepoFactory, clock.NewClock())
}

func execute(ctx context.Context, args []string, out, errOut io.Writer, factory RepoFactory, clk clock.Clock) int {
	rt := &session{out: out, errOut: errOut, factory: factory, clock: clk, result: domain.ResultSuccess}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		printer := report.NewPrinter(errOut, config.OutputText)
		if rt.cfg != nil && rt.cfg.Output != config.OutputText {
			printer = rt.printer
		}
		_ = printer.Error(err)
		if rt.log != nil {
			rt.log.Debug("command failed", zap.String("detail", fmt.Sprintf("%+v", err)))
			_ = rt.log.Sync()
		}
		return domain.ResultFailed.ExitCode()
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
	return rt.result.ExitCode()
}

func optional(s string) mo.Option[string] {
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}
