package cmd

import (
	"encoding/json"
	"os"
)

// Pretty prints results of one-off commands
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
