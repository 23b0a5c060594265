package main

import (
	"github.com/spf13/cobra"

	"github.com/os-threat/triage"
)

// blockFlags are the flags shared by every block subcommand.
type blockFlags struct {
	configPath string
	inputPath  string
	outputPath string
}

func newRootCmd() *cobra.Command {
	flags := &blockFlags{}

	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Context graph store and view engine for threat-incident triage",
		Long: `triage manages the file-partitioned context memory of a threat-incident
triage session: incident creation and selection, object promotion from the
unattached pool, tab view materialization, and relationship constraint
resolution.

Each subcommand is a block: it reads one JSON payload (stdin or --input),
performs one operation, and writes one JSON result (stdout or --output).
Operational failures are reported inside the result payload.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to triage.yaml")
	rootCmd.PersistentFlags().StringVarP(&flags.inputPath, "input", "i", "", "input payload file (default stdin)")
	rootCmd.PersistentFlags().StringVarP(&flags.outputPath, "output", "o", "", "result file (default stdout)")

	rootCmd.AddCommand(
		newCreateIncidentCmd(flags),
		newOpenIncidentCmd(flags),
		newListIncidentsCmd(flags),
		newSaveCmd(flags),
		newSaveUnattachedCmd(flags),
		newSaveCompanyCmd(flags),
		newSaveUserCmd(flags),
		newPromoteCmd(flags),
		newGetCmd(flags),
		newRelationshipTypesCmd(flags),
		newConnectionsCmd(flags),
		newIndexCmd(flags),
		newUnattachedCmd(flags),
	)
	return rootCmd
}

// openSession builds a Session from the shared flags.
func openSession(flags *blockFlags) (*triage.Session, error) {
	return triage.NewSession(triage.WithConfigPath(flags.configPath))
}
