// --- Copyright © 2025 Gjorgji J. ---

package cmd

import (
	"fmt"
	"os"

	cleanregistry "registry-tag-cleaner/internal/cleanRegistry"
	ecrgateway "registry-tag-cleaner/internal/ecrGateway"
	evaluateretention "registry-tag-cleaner/internal/evaluateRetention"
	initawsclient "registry-tag-cleaner/internal/initAwsClient"
	matchpattern "registry-tag-cleaner/internal/matchPattern"
	parsegrace "registry-tag-cleaner/internal/parseGrace"
	readpolicyfile "registry-tag-cleaner/internal/readPolicyFile"
	registrygateway "registry-tag-cleaner/internal/registryGateway"
	renderreport "registry-tag-cleaner/internal/renderReport"
	scwgateway "registry-tag-cleaner/internal/scwGateway"
	setuplogging "registry-tag-cleaner/internal/setupLogging"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
)

var (
	namespaces   []string
	keep         int
	graceExpr    string
	patternExpr  string
	policyFile   string
	provider     string
	region       string
	scwSecretKey string
	dryRun       bool
	debug        bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Deletes old generated tags from registry repositories.",
	Long: `Deletes old generated tags from container-image repositories.

Tags are matched against a pattern whose single named capture group holds
the build time as Unix epoch seconds. Per image, at least --keep matching
tags survive, and no tag younger than --grace is ever deleted. Tags not
matching the pattern are never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("[INFO] clean called")

		if policyFile != "" {
			filePolicy, err := readpolicyfile.ReadPolicyFile(policyFile)
			if err != nil {
				return err
			}
			// flags passed on the command line win over file values
			if !cmd.Flags().Changed("pattern") && filePolicy.Pattern != "" {
				patternExpr = filePolicy.Pattern
			}
			if !cmd.Flags().Changed("grace") && filePolicy.Grace != "" {
				graceExpr = filePolicy.Grace
			}
			if !cmd.Flags().Changed("keep") && filePolicy.Keep != nil {
				keep = *filePolicy.Keep
			}
		}

		// fail fast on configuration before any registry call
		matcher, err := matchpattern.Compile(patternExpr)
		if err != nil {
			return err
		}
		grace, err := parsegrace.Parse(graceExpr)
		if err != nil {
			return err
		}
		policy := evaluateretention.Policy{Keep: keep, Grace: grace}
		if err := policy.Validate(); err != nil {
			return err
		}

		logger := setuplogging.NewLogger(cmd.OutOrStdout(), debug)
		ctx := cmd.Context()

		var gateway registrygateway.Gateway
		switch provider {
		case "scw":
			secret := scwSecretKey
			if secret == "" {
				secret = os.Getenv("SCW_SECRET_KEY")
			}
			scwRegion := region
			if scwRegion == "" {
				scwRegion = os.Getenv("SCW_REGION")
			}
			gateway, err = scwgateway.New(scwgateway.Config{
				Region:    scwRegion,
				SecretKey: secret,
				Debug:     debug,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
		case "ecr":
			client, account, awsRegion, err := initawsclient.NewECRClient(ctx, config.LoadDefaultConfig)
			if err != nil {
				cmd.Printf("[ERROR] Failed to initialize AWS client: %v\n", err)
				return err
			}
			cmd.Printf("[INFO] Using AWS account: %s, region: %s\n", account, awsRegion)
			gateway = ecrgateway.New(client, logger)
		default:
			return fmt.Errorf("unknown provider %q (expected scw or ecr)", provider)
		}
		defer gateway.Close()

		report, plan, err := cleanregistry.Run(ctx, gateway, cleanregistry.Options{
			Namespaces: namespaces,
			Policy:     policy,
			Matcher:    matcher,
			DryRun:     dryRun,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		if dryRun {
			renderreport.RenderPlan(cmd.OutOrStdout(), plan)
			cmd.Printf("[DRY RUN] Would delete %d tags\n", plan.Size())
			return nil
		}

		renderreport.Render(cmd.OutOrStdout(), report)
		cmd.Println("[INFO] Finished registry tag cleanup.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringArrayVarP(&namespaces, "namespace", "n", nil, "namespace to clean (repeatable)")
	cleanCmd.Flags().IntVarP(&keep, "keep", "k", 0, "minimum number of matching tags to keep per image")
	cleanCmd.Flags().StringVarP(&graceExpr, "grace", "g", "", "minimum age before a tag may be deleted, e.g. '48hr', '3600s', '24hr30m'")
	cleanCmd.Flags().StringVarP(&patternExpr, "pattern", "p", "", "tag pattern with one named capture group holding the build epoch")
	cleanCmd.Flags().StringVarP(&policyFile, "policyFile", "f", "", "path to a JSON file with keep/grace/pattern")
	cleanCmd.Flags().StringVar(&provider, "provider", "scw", "registry provider: scw or ecr")
	cleanCmd.Flags().StringVar(&region, "region", "", "Scaleway region (defaults to SCW_REGION, then fr-par)")
	cleanCmd.Flags().StringVar(&scwSecretKey, "scw-secret-key", "", "Scaleway secret key (defaults to SCW_SECRET_KEY)")
	cleanCmd.Flags().BoolVar(&dryRun, "dryRun", false, "print the deletion plan without deleting anything")
	cleanCmd.Flags().BoolVar(&debug, "debug", false, "log raw registry responses")
	cleanCmd.MarkFlagRequired("namespace") // nolint:errcheck
}
