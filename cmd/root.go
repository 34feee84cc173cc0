package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"interviewrag/src/infrastructure/log"
)

var rootCmd = &cobra.Command{
	Use:   "interviewrag",
	Short: "Interview booking assistant backed by retrieval augmented generation",
	Long: `interviewrag answers questions about uploaded documents and books interviews
through a conversational agent. Run "serve" for the HTTP API, "worker" for background
ingestion, or "chat" for a terminal session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return log.Init(viper.GetBool("log.development"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	settingDefaultConfig()
}
