// Command matchctl talks to a running matching service: it files reports,
// runs matches and inspects the audit log.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/client"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/imagedata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverURL string
	verbose   bool
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Lost and Found matching service CLI",
	Long: `matchctl files lost and found reports and asks the matching service
which lost items a found item may belong to.`,
	SilenceUsage: true,
}

func init() {
	defaultURL := os.Getenv("MATCH_SERVICE_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8002"
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "matching service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for a command")

	rootCmd.AddCommand(healthCmd, lostCmd, foundCmd, matchCmd, runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	logger := zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	return client.NewClient(strings.TrimRight(serverURL, "/"), logger)
}

// imageRef turns a local path into a data URI; URLs and data URIs pass through
func imageRef(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("--image is required")
	}
	if imagedata.IsRemote(ref) || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}

	img, err := imagedata.LoadFile(ref)
	if err != nil {
		return "", err
	}
	return img.DataURI(), nil
}
