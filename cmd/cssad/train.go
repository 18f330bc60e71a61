package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cssadmkl/kernel"
	"github.com/YuminosukeSato/cssadmkl/metrics"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/report"
	"github.com/YuminosukeSato/cssadmkl/svm"
)

func addDataFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input", "", "CSV file with one sample per row")
	f.Bool("header", true, "the CSV starts with a header row")
	f.String("label", "label", "label column name or index (negative counts from the end); empty for none")
	f.String("scale", "none", "feature scaling: standard, minmax or none")
	f.String("kernel", "rbf", "kernel: linear, rbf, poly or sigmoid")
	f.String("params", "1.0", "comma separated kernel parameters, one mixing pass each")
	f.String("plot", "", "write a score plot (png, svg or pdf)")
}

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a CSSAD-MKL detector",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.train(cmd)
		},
	}
	addDataFlags(cmd)
	f := cmd.Flags()
	f.Float64("kappa", 1.0, "lower bound on the total weight of labeled samples")
	f.Float64("cp", 1.0, "box constraint of positive samples")
	f.Float64("cu", 1.0, "box constraint of unlabeled samples")
	f.Float64("cn", 1.0, "box constraint of negative samples")
	f.Float64("mix", 1.0, "blending weight of every kernel after the first")
	f.Float64("precision", 1e-5, "support vector tolerance")
	f.String("out", "", "write the trained model as JSON")
	return cmd
}

func (a *app) train(cmd *cobra.Command) error {
	logger := log.GetLoggerWithName("cli.train")

	ds, err := a.readDataset("input")
	if err != nil {
		logger.Error("failed to read training data", err)
		return err
	}
	X, scaler, err := a.fitScaler(ds.X)
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
	labels := labelsOrUnlabeled(ds)

	m, err := svm.NewCSSADMKL(X, labels,
		svm.WithKernel(kt),
		svm.WithKernelParams(params...),
		svm.WithKappa(a.v.GetFloat64("kappa")),
		svm.WithCp(a.v.GetFloat64("cp")),
		svm.WithCu(a.v.GetFloat64("cu")),
		svm.WithCn(a.v.GetFloat64("cn")),
		svm.WithMix(a.v.GetFloat64("mix")),
		svm.WithPrecision(a.v.GetFloat64("precision")),
	)
	if err != nil {
		return err
	}
	if err := m.TrainDual(); err != nil {
		return err
	}

	scores, err := m.ApplyDual(X)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "samples:          %d\n", ds.Samples())
	fmt.Fprintf(out, "support vectors:  %d\n", len(m.SupportVectors()))
	fmt.Fprintf(out, "threshold:        %g\n", m.Threshold())
	if auc, err := metrics.DetectionAUC(labels, scores); err == nil {
		fmt.Fprintf(out, "training auc:     %.4f\n", auc)
	}

	if path := a.v.GetString("plot"); path != "" {
		p, err := report.NewScorePlot(scores, labels, m.SupportVectors(), m.Threshold())
		if err != nil {
			return err
		}
		p.Title = "CSSAD-MKL training scores"
		if err := p.Save(path); err != nil {
			return err
		}
		logger.Info("wrote score plot", "path", path)
	}

	if path := a.v.GetString("out"); path != "" {
		w, err := m.Weights()
		if err != nil {
			return err
		}
		sp, err := scaler.Params()
		if err != nil {
			return err
		}
		if err := writeModelFile(path, &modelFile{Model: w, Scaler: &sp}); err != nil {
			return err
		}
		logger.Info("wrote model", "path", path)
	}
	return nil
}
