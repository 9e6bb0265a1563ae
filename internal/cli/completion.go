package cli

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion SHELL",
	Short: "Generate a shell completion script",
	Long: `Generate a completion script for your shell.

Load it once in the current session, or install it permanently:

  source <(engram completion bash)
  source <(engram completion zsh)
  engram completion fish | source
  engram completion powershell | Out-String | Invoke-Expression

For permanent installation, write the output to your shell's completion
directory, such as /etc/bash_completion.d/engram or "${fpath[1]}/_engram".`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		default:
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
	},
}
