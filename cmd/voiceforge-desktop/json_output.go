package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReply prints a daemon reply verbatim. With --json a reply that is
// valid JSON is re-indented; anything else is wrapped as {"reply": ...}.
func writeReply(cmd *cobra.Command, ctx *commandContext, reply string) error {
	if !ctx.jsonOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}
	trimmed := strings.TrimSpace(reply)
	if json.Valid([]byte(trimmed)) {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return writeJSON(cmd, parsed)
		}
	}
	return writeJSON(cmd, map[string]string{"reply": reply})
}
