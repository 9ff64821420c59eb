package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func (c *CLI) newTrainersCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trainers",
		Short: "List the registered training algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithms := c.registry.Algorithms()
			if asJSON {
				output, err := json.MarshalIndent(algorithms, "", "  ")
				if err != nil {
					return err
				}
				_, err = c.stdout.Write(append(output, '\n'))
				return err
			}
			w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tBUILTIN")
			for _, a := range algorithms {
				fmt.Fprintf(w, "%s\t%s\t%t\n", a.Name, a.Kind, a.Builtin)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	return cmd
}
