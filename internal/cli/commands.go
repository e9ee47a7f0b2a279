package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/HaPhanBaoMinh/sre/internal/app"
	"github.com/HaPhanBaoMinh/sre/internal/scale"
)

func newListCommand(rt *session) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments (all namespaces unless --namespace is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := rt.deploymentService().List(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			return rt.printer.Deployments(views)
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to list")
	return cmd
}

func newScaleCommand(rt *session) *cobra.Command {
	var (
		name, namespace   string
		replicas          int32
		timeout, interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Set a deployment's replica count and wait for it to converge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := scale.Options{PollInterval: rt.cfg.Scale.PollInterval, Timeout: rt.cfg.Scale.Timeout}
			if cmd.Flags().Changed("interval") {
				opts.PollInterval = interval
			}
			if cmd.Flags().Changed("timeout") {
				opts.Timeout = timeout
			}
			driver := scale.NewDriver(rt.repo, rt.resolver, rt.clock, opts, rt.log)
			outcome, err := driver.Scale(cmd.Context(), name, replicas, optional(namespace))
			if err != nil {
				return err
			}
			rt.result = outcome.Result()
			return rt.printer.ScaleOutcome(outcome)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&name, "deployment", "d", "", "deployment name")
	f.Int32VarP(&replicas, "replicas", "r", 0, "desired replica count")
	f.StringVarP(&namespace, "namespace", "n", "", "namespace (resolved from the deployment name when omitted)")
	f.DurationVar(&timeout, "timeout", scale.DefaultTimeout, "how long to wait for convergence")
	f.DurationVar(&interval, "interval", scale.DefaultPollInterval, "how often to poll the replica count")
	_ = cmd.MarkFlagRequired("deployment")
	_ = cmd.MarkFlagRequired("replicas")
	return cmd
}

func newInfoCommand(rt *session) *cobra.Command {
	var name, namespace string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show a deployment's replicas and container resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := rt.deploymentService().Info(cmd.Context(), name, optional(namespace))
			if err != nil {
				return err
			}
			return rt.printer.Deployment(view)
		},
	}
	cmd.Flags().StringVarP(&name, "deployment", "d", "", "deployment name")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace (resolved from the deployment name when omitted)")
	_ = cmd.MarkFlagRequired("deployment")
	return cmd
}

func newDiagnosticCommand(rt *session) *cobra.Command {
	var name, namespace, pod string
	cmd := &cobra.Command{
		Use:   "diagnostic",
		Short: "Report a deployment's pods, their conditions and resource usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := rt.aggregator().Diagnose(cmd.Context(), name, optional(namespace), optional(pod))
			if err != nil {
				return err
			}
			rt.result = r.Result()
			return rt.printer.Report(r)
		},
	}
	cmd.Flags().StringVarP(&name, "deployment", "d", "", "deployment name")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace (resolved from the deployment name when omitted)")
	cmd.Flags().StringVarP(&pod, "pod", "p", "", "only report this pod")
	_ = cmd.MarkFlagRequired("deployment")
	return cmd
}

func newBrowseCommand(rt *session) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse deployments and their diagnostics interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := app.New(cmd.Context(), rt.deploymentService(), rt.aggregator(), namespace)
			_, err := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(rt.out),
			).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to start in (default: all)")
	return cmd
}
