package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cssadmkl/kernel"
	"github.com/YuminosukeSato/cssadmkl/metrics"
	"github.com/YuminosukeSato/cssadmkl/report"
	"github.com/YuminosukeSato/cssadmkl/svm"
)

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Train a one-class SVM on the same data for comparison",
		Long: `baseline ignores the labels during training and fits a one-class SVM on
the Gram matrix of the first kernel parameter. Labels are only used for the AUC.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.baseline(cmd)
		},
	}
	addDataFlags(cmd)
	cmd.Flags().Float64("c", 1.0, "box constraint of every sample")
	cmd.Flags().Float64("precision", 1e-3, "support vector tolerance")
	return cmd
}

func (a *app) baseline(cmd *cobra.Command) error {
	ds, err := a.readDataset("input")
	if err != nil {
		return err
	}
	X, _, err := a.fitScaler(ds.X)
	if err != nil {
		return err
	}
	kt, err := kernel.ParseType(a.v.GetString("kernel"))
	if err != nil {
		return err
	}
	params, err := a.kernelParams()
	if err != nil {
		return err
	}

	K, err := kernel.NewComputer().Gram(X, X, kt, params[0])
	if err != nil {
		return err
	}
	m, err := svm.NewOCSVM(K,
		svm.WithC(a.v.GetFloat64("c")),
		svm.WithOCSVMPrecision(a.v.GetFloat64("precision")),
	)
	if err != nil {
		return err
	}
	if err := m.Fit(); err != nil {
		return err
	}
	scores, err := m.Apply(K)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "samples:          %d\n", ds.Samples())
	fmt.Fprintf(out, "support vectors:  %d\n", len(m.SupportVectors()))
	fmt.Fprintf(out, "threshold:        %g\n", m.Threshold())
	if ds.Labels != nil {
		if auc, err := metrics.DetectionAUC(ds.Labels, scores); err == nil {
			fmt.Fprintf(out, "training auc:     %.4f\n", auc)
		}
	}

	if path := a.v.GetString("plot"); path != "" {
		p, err := report.NewScorePlot(scores, ds.Labels, m.SupportVectors(), m.Threshold())
		if err != nil {
			return err
		}
		p.Title = "One-class SVM training scores"
		return p.Save(path)
	}
	return nil
}
