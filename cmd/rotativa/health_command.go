package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var addressFlag string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running rotativa API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			address := addressFlag
			if address == "" {
				address = cfg.Paths.APIBind
			}

			client := &http.Client{Timeout: 20 * time.Second}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+address+"/api/health", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("reach api server at %s: %w", address, err)
			}
			defer resp.Body.Close()

			var payload map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decode health response: %w", err)
			}

			out := cmd.OutOrStdout()
			kind := statusOK
			if resp.StatusCode != http.StatusOK {
				kind = statusError
			}
			printStatus(out, kind, fmt.Sprintf("api server at %s: %v", address, payload["status"]))
			if llmStatus, ok := payload["llm"]; ok {
				llmKind := statusOK
				if llmStatus != "ok" {
					llmKind = statusWarn
				}
				printStatus(out, llmKind, fmt.Sprintf("model provider: %v", llmStatus))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("api server unhealthy (status %d)", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addressFlag, "address", "", "API server address (defaults to paths.api_bind)")
	return cmd
}
