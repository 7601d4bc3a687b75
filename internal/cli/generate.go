package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// generateCommand prints an identicon's digest, color and pattern.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		size   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate <content>",
		Short: "Print the identicon for a piece of text",
		Example: `  ideconfy generate hello
  ideconfy generate --size 7 --json "some longer text"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if size == 0 {
				size = cfg.Render.Size
			}
			runner, err := c.newRunner(cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			id, _, err := runner.Identicon(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(id)
			}
			fmt.Fprint(out, patternBlock(id))
			fmt.Fprintln(out)
			fmt.Fprintln(out, keyValue("content", id.Content))
			fmt.Fprintln(out, keyValue("digest", string(id.Digest)))
			fmt.Fprintln(out, keyValue("color", id.Color.Hex()))
			fmt.Fprintln(out, keyValue("cells", strconv.Itoa(len(id.Pattern.On()))))
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 0, "grid size (default from config, 5)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a terminal preview")
	return cmd
}
