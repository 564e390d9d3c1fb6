// Copyright © 2024 Gjorgji J.

package initawsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ConfigLoader matches config.LoadDefaultConfig and is injected for testability.
type ConfigLoader func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error)

// NewECRClient loads the default AWS config, verifies the caller identity
// through STS and returns a ready ECR client with the resolved account and region.
func NewECRClient(ctx context.Context, loadConfig ConfigLoader) (*ecr.Client, string, string, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load SDK config: %w", err)
	}

	stsClient := sts.NewFromConfig(cfg)
	identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to get caller identity: %w", err)
	}

	return ecr.NewFromConfig(cfg), aws.ToString(identity.Account), cfg.Region, nil
}
