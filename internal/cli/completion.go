package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for layerank.

Bash:
  $ source <(layerank completion bash)

Zsh:
  $ layerank completion zsh > "${fpath[1]}/_layerank"

Fish:
  $ layerank completion fish > ~/.config/fish/completions/layerank.fish

PowerShell:
  PS> layerank completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// flagValues lists the fixed values of enum flags for shell completion.
var flagValues = map[string][]string{
	"ranker":  {"network-simplex", "longest-path"},
	"balance": {"none", "top-bottom", "left-right"},
	"adjust":  {"none", "min", "max"},
	"format":  {"svg", "dot", "json", "pdf", "png"},
}

// registerFlagCompletions wires value completion for every enum flag cmd
// defines.
func registerFlagCompletions(cmd *cobra.Command) {
	for name, values := range flagValues {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
}
