// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/assistgate/assistgate/internal/assistant"
)

// defaultServerURL can be overridden with the ASSISTGATE_SERVER environment
// variable or the -server flag on each command.
const defaultServerURL = "http://localhost:8000"

func serverURLDefault() string {
	if v := os.Getenv("ASSISTGATE_SERVER"); v != "" {
		return v
	}
	return defaultServerURL
}

// httpClient allows long-running assistant invocations; chat can take minutes.
var httpClient = &http.Client{Timeout: 15 * time.Minute}

// postEnvelope sends a JSON body and decodes the normalized result envelope.
func postEnvelope(serverURL, path string, body interface{}) (assistant.Envelope, error) {
	var env assistant.Envelope

	payload, err := json.Marshal(body)
	if err != nil {
		return env, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := httpClient.Post(serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return env, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return env, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return env, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decoding envelope: %w", err)
	}
	return env, nil
}

// printEnvelope writes the result to stdout and reports tool failures as an
// error so the process exits non-zero.
func printEnvelope(env assistant.Envelope) error {
	if !env.Success {
		kind := ""
		if env.ErrorKind != nil {
			kind = *env.ErrorKind
		}
		detail := ""
		if env.ErrorDetail != nil {
			detail = *env.ErrorDetail
		}
		return fmt.Errorf("%s %s failed (%s): %s", env.Assistant, env.Operation, kind, detail)
	}
	if env.Content != nil {
		fmt.Println(*env.Content)
	}
	return nil
}

// readSource loads code or diff input from a file, or stdin when path is "-"
// or empty.
func readSource(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
