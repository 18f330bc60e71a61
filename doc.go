// Package cssadmkl provides semi-supervised anomaly detection with support
// vector machines trained in the dual, for Go services and batch jobs.
//
// The main detector is CSSAD-MKL (convex semi-supervised anomaly detection
// with multiple kernels). It learns from a mix of unlabeled samples and a few
// samples labeled normal (+1) or anomalous (-1), and blends the kernels of
// several parameters into one matrix. A one-class SVM over a precomputed
// kernel is included as a baseline.
//
// # Installation
//
//	go get github.com/YuminosukeSato/cssadmkl
//
// # Quick Start
//
// Samples are the columns of a dims × samples matrix:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/cssadmkl/svm"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(2, 5, []float64{
//	        0.0, 0.1, -0.1, 0.2, 4.0,
//	        0.0, 0.2, 0.1, -0.1, 4.0,
//	    })
//	    y := []int{1, 0, 0, 0, -1}
//
//	    detector, err := svm.NewCSSADMKL(X, y,
//	        svm.WithKappa(0.5),
//	        svm.WithKernelParams(0.5, 1, 2),
//	        svm.WithMix(0.5),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := detector.TrainDual(); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    scores, err := detector.ApplyDual(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("threshold:", detector.Threshold())
//	    fmt.Println("scores:", mat.Formatted(scores.T()))
//	}
//
// Lower scores are more anomalous; Predict maps scores below the threshold
// to -1.
//
// # Packages
//
//   - svm: CSSADMKL and OCSVM detectors, threshold inference
//   - qp: interior point solver for convex quadratic programs
//   - kernel: Gram matrices (linear, RBF, polynomial, sigmoid)
//   - metrics: AUC and accuracy for detectors
//   - preprocessing: feature scaling in the dims × samples layout
//   - report: score plots
//   - core/model: model state, exported weights, detector interfaces
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: error types and structured logging
//   - pkg/io/csv: CSV ingestion
//   - cmd/cssad: command line interface
//
// # Error Handling
//
// Failures wrap sentinel errors, so callers can test them with errors.Is:
//
//	if errors.Is(err, errors.ErrInfeasibleConstraints) {
//	    // lower kappa or raise the box constraints
//	}
//
// # License
//
// Released under the MIT License.
package cssadmkl
