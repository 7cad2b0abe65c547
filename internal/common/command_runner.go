package common

import (
	"context"
	"encoding/json"
	"fmt"

	"whitecarrot/internal/errors"
)

// CreateInputFunc builds the command input from the contents of its files
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc runs the command against its input
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunFileCommand reads and validates the argument files, runs the operation
// and writes its formatted result
func RunFileCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}

// DecodeJSON parses one input file. what names the document in errors.
func DecodeJSON[T any](content, what string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return v, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Invalid %s JSON", what), err)
	}
	return v, nil
}
