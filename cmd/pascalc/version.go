package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pascalc/internal/version"
	"pascalc/internal/vm"
)

type versionPayload struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
	Natives   []string `json:"natives,omitempty"`
}

var (
	versionFormat  string
	versionNatives bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionNatives, "natives", false, "list the library methods the VM provides")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pascalc build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(versionFormat) {
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout())
			return nil
		case "json":
			return renderVersionJSON(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func renderVersionPretty(out io.Writer) {
	fmt.Fprintf(out, "pascalc %s\n", version.Colored())
	if c := strings.TrimSpace(version.GitCommit); c != "" {
		fmt.Fprintf(out, "commit: %s\n", c)
	}
	if d := strings.TrimSpace(version.BuildDate); d != "" {
		fmt.Fprintf(out, "built:  %s\n", d)
	}
	if versionNatives {
		for _, sig := range vm.Natives() {
			fmt.Fprintf(out, "  %s\n", sig)
		}
	}
}

func renderVersionJSON(out io.Writer) error {
	payload := versionPayload{
		Tool:      "pascalc",
		Version:   version.Version,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
	if versionNatives {
		payload.Natives = vm.Natives()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
