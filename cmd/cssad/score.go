package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cssadmkl/metrics"
	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/io/csv"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/preprocessing"
	"github.com/YuminosukeSato/cssadmkl/svm"
)

func newScoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score CSV samples with a trained model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.score(cmd)
		},
	}
	f := cmd.Flags()
	f.String("model", "", "model JSON written by train --out")
	f.String("input", "", "CSV file with one sample per row")
	f.Bool("header", true, "the CSV starts with a header row")
	f.String("label", "", "optional label column name or index, used for the AUC")
	f.String("output", "", "write results as CSV to this file instead of stdout")
	return cmd
}

func (a *app) score(cmd *cobra.Command) error {
	logger := log.GetLoggerWithName("cli.score")

	mf, err := readModelFile(a.v.GetString("model"))
	if err != nil {
		logger.Error("failed to load model", err)
		return err
	}
	m, err := svm.NewCSSADMKLFromWeights(mf.Model)
	if err != nil {
		return err
	}

	ds, err := a.readDataset("input")
	if err != nil {
		logger.Error("failed to read test data", err)
		return err
	}
	Y := ds.X
	if mf.Scaler != nil {
		scaler, err := preprocessing.NewFeatureScalerFromParams(*mf.Scaler)
		if err != nil {
			return err
		}
		if Y, err = scaler.Transform(Y); err != nil {
			return err
		}
	}

	scores, err := m.ApplyDual(Y)
	if err != nil {
		return err
	}
	preds, err := m.Predict(Y)
	if err != nil {
		return err
	}
	results, err := csv.NewResults(scores, preds, ds.Labels)
	if err != nil {
		return err
	}

	var dst io.Writer = cmd.OutOrStdout()
	if path := a.v.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "create %s", path)
		}
		defer f.Close()
		dst = f
	}
	if err := csv.WriteResults(dst, results, ds.Labels != nil); err != nil {
		return err
	}

	if ds.Labels != nil {
		if auc, err := metrics.DetectionAUC(ds.Labels, scores); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "auc: %.4f\n", auc)
		}
	}
	logger.Info("scored samples", log.PredsKey, len(preds), log.ThresholdKey, m.Threshold())
	return nil
}
