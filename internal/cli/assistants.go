// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"

	"github.com/assistgate/assistgate/internal/assistant"
)

// assistantsCommand implements `assistgate assistants`.
func assistantsCommand(args []string) error {
	fs := flag.NewFlagSet("assistants", flag.ExitOnError)
	serverURL := fs.String("server", serverURLDefault(), "assistgate server URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := httpClient.Get(*serverURL + "/api/v1/assistants")
	if err != nil {
		return fmt.Errorf("calling /api/v1/assistants: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var body struct {
		Assistants []assistant.Status `json:"assistants"`
		Default    string             `json:"default"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	for _, s := range body.Assistants {
		state := "unavailable"
		if s.Available {
			state = "available"
		}
		marker := " "
		if s.ID == body.Default {
			marker = "*"
		}
		fmt.Printf("%s %-10s %-24s %s\n", marker, s.ID, s.DisplayName, state)
	}
	return nil
}
