package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// readInput decodes the block input payload from the --input file, or stdin
// when no file is given. Payloads may be wrapped in an {"api": {...}} envelope.
func readInput(path string, out any) error {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var envelope struct {
		API json.RawMessage `json:"api"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.API) > 0 {
		data = envelope.API
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	return nil
}

// writeOutput encodes the block result to the --output file, or stdout when
// no file is given.
func writeOutput(path string, result any) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// errorResult is the payload written when a block fails. Blocks exit zero on
// failure; orchestrators detect errors from the payload.
type errorResult struct {
	Error string `json:"error"`
}

// writeResult writes either the successful result or an error payload.
func writeResult(path string, result any, err error) error {
	if err != nil {
		return writeOutput(path, errorResult{Error: err.Error()})
	}
	return writeOutput(path, result)
}
