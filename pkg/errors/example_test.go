package errors_test

import (
	"errors"
	"fmt"

	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// Example demonstrates Go 1.13+ error wrapping
func Example() {
	// Create a base error
	baseErr := fmt.Errorf("invalid input value")

	// Wrap the error with context using Go 1.13+ syntax
	wrappedErr := fmt.Errorf("option validation failed: %w", baseErr)

	// Further wrap with operation context
	opErr := fmt.Errorf("StackingClassifier.Fit: %w", wrappedErr)

	// Use errors.Is to check for specific error types
	if errors.Is(opErr, baseErr) {
		fmt.Println("Found base error in chain")
	}

	// Unwrap errors to get the underlying cause
	unwrapped := errors.Unwrap(opErr)
	fmt.Printf("Unwrapped: %v\n", unwrapped)

	// Output: Found base error in chain
	// Unwrapped: option validation failed: invalid input value
}

// Example_customErrorTypes demonstrates custom error type handling
func Example_customErrorTypes() {
	// Create a custom error using our error constructors
	dimErr := cmlErrors.NewDimensionError("Transform", 5, 3, 1)

	// Wrap it with additional context
	wrappedErr := fmt.Errorf("meta-feature construction failed: %w", dimErr)

	// Check if error is of specific type using errors.As
	var dimensionErr *cmlErrors.DimensionError
	if errors.As(wrappedErr, &dimensionErr) {
		fmt.Printf("Dimension error: expected %d, got %d\n",
			dimensionErr.Expected, dimensionErr.Got)
	}

	// Output: Dimension error: expected 5, got 3
}

// Example_errorComparison demonstrates error comparison patterns
func Example_errorComparison() {
	// Create different types of errors
	notFittedErr := cmlErrors.NewNotFittedError("VotingClassifier", "Transform")
	valueErr := cmlErrors.NewValueError("Holdout", "test fraction must be in [0, 1]")

	// Create a sentinel error for comparison
	customErr := errors.New("custom processing error")
	wrappedCustom := fmt.Errorf("operation failed: %w", customErr)

	// Use errors.Is for sentinel error checking
	if errors.Is(wrappedCustom, customErr) {
		fmt.Println("Custom error detected")
	}

	// Use errors.As for type assertions
	var notFitted *cmlErrors.NotFittedError
	if errors.As(notFittedErr, &notFitted) {
		fmt.Printf("Model %s is not fitted for %s\n",
			notFitted.ModelName, notFitted.Method)
	}

	var valErr *cmlErrors.ValueError
	if errors.As(valueErr, &valErr) {
		fmt.Printf("Value error in %s: %s\n", valErr.Op, valErr.Message)
	}

	// Output: Custom error detected
	// Model VotingClassifier is not fitted for Transform
	// Value error in Holdout: test fraction must be in [0, 1]
}

// Example_errorChaining demonstrates practical error chaining in ML operations
func Example_errorChaining() {
	// Simulate an ensemble training error
	simulateEnsembleError := func() error {
		// Simulate data validation error
		dataErr := fmt.Errorf("invalid data format")

		// Wrap with encoding context
		encErr := fmt.Errorf("label encoding failed: %w", dataErr)

		// Wrap with ensemble training context
		trainErr := fmt.Errorf("ensemble training failed: %w", encErr)

		return trainErr
	}

	err := simulateEnsembleError()

	// Print the full error chain
	fmt.Printf("Error: %v\n", err)

	// Walk through the error chain
	current := err
	level := 0
	for current != nil {
		fmt.Printf("Level %d: %v\n", level, current)
		current = errors.Unwrap(current)
		level++
	}

	// Output: Error: ensemble training failed: label encoding failed: invalid data format
	// Level 0: ensemble training failed: label encoding failed: invalid data format
	// Level 1: label encoding failed: invalid data format
	// Level 2: invalid data format
}

// Example_errorLogging demonstrates structured error logging
func Example_errorLogging() {
	// Create a child-model failure with context
	baseErr := cmlErrors.NewFitError("DecisionTreeClassifier",
		cmlErrors.ErrEmptyData)

	// Wrap with operation context
	opErr := fmt.Errorf("stacking fold 3: %w", baseErr)

	// For production, structured logging would record the full chain;
	// cockroachdb/errors adds the stack trace under %+v.
	fmt.Printf("Error occurred while stacking: %v\n", opErr)

	// Output: Error occurred while stacking: stacking fold 3: combineml: DecisionTreeClassifier: fit failed: combineml: empty data
}
