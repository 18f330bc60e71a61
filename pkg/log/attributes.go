// Package log defines standard attribute keys for detector training and scoring.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "qp.iterations") so that logs can be filtered by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "OCSVM", "CSSADMKL"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "svm.ocsvm", "qp.interior_point", "kernel"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (columns of the sample matrix).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the input dimensionality (rows of the sample matrix).
	FeaturesKey = "data.features"

	// PositivesKey, UnlabeledKey and NegativesKey count samples per label class.
	PositivesKey = "data.positives"
	UnlabeledKey = "data.unlabeled"
	NegativesKey = "data.negatives"
)

// Training
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current mixing iteration.
	IterationKey = "training.iteration"

	// KernelTypeKey and KernelParamKey describe the kernel used by an iteration.
	KernelTypeKey  = "kernel.type"
	KernelParamKey = "kernel.param"

	// SelectedKey counts the samples whose kernel rows were mixed in an iteration.
	SelectedKey = "kernel.selected"

	// KappaKey records the labeled-margin floor.
	KappaKey = "svm.kappa"

	// SupportVectorsKey counts support vectors after a solve.
	SupportVectorsKey = "svm.support_vectors"

	// OutliersKey counts support vectors scoring below the threshold.
	OutliersKey = "svm.outliers"

	// QPIterationsKey, QPStatusKey and QPGapKey describe a QP solve.
	QPIterationsKey = "qp.iterations"
	QPStatusKey     = "qp.status"
	QPGapKey        = "qp.gap"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ThresholdKey records the decision threshold.
	ThresholdKey = "preds.threshold"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the problem.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted           = "NOT_FITTED"
	ErrorInvalidTrainingData = "INVALID_TRAINING_DATA"
	ErrorInvalidTestData     = "INVALID_TEST_DATA"
	ErrorInfeasible          = "INFEASIBLE"
	ErrorSolverFailed        = "SOLVER_FAILED"
)
