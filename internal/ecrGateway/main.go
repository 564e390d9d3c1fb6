// --- Copyright © 2025 Gjorgji J. ---

package ecrgateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	registrygateway "registry-tag-cleaner/internal/registryGateway"
)

// --- ECRAPI defines the subset of ecr.Client methods used for testability ---
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	DescribeImages(ctx context.Context, in *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
	BatchDeleteImage(ctx context.Context, in *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

// --- Gateway adapts Amazon ECR to the registry gateway surface ---
// The namespace argument selects repositories by name prefix, since ECR has
// no namespace object of its own.
type Gateway struct {
	client ECRAPI
	logger zerolog.Logger
}

func New(client ECRAPI, logger zerolog.Logger) *Gateway {
	return &Gateway{client: client, logger: logger}
}

// --- returns repository names matching the namespace prefix ---
func (g *Gateway) ListImages(ctx context.Context, namespace string) ([]string, error) {
	var repositories []string
	paginator := ecr.NewDescribeRepositoriesPaginator(g.client, &ecr.DescribeRepositoriesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe repositories: %w", err)
		}
		for _, repo := range page.Repositories {
			name := aws.ToString(repo.RepositoryName)
			if namespace == "" || strings.HasPrefix(name, namespace) {
				repositories = append(repositories, name)
			}
		}
	}
	sort.Strings(repositories)

	return repositories, nil
}

// --- returns every tag of a repository with its push time ---
func (g *Gateway) ListTags(ctx context.Context, image string) ([]registrygateway.TagListing, error) {
	var listings []registrygateway.TagListing
	paginator := ecr.NewDescribeImagesPaginator(g.client, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(image),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe images for repository %s: %w", image, err)
		}
		for _, detail := range page.ImageDetails {
			for _, tag := range detail.ImageTags {
				listings = append(listings, registrygateway.TagListing{
					Name:      tag,
					CreatedAt: aws.ToTime(detail.ImagePushedAt),
				})
			}
		}
	}

	return listings, nil
}

// --- deletes a single tag via BatchDeleteImage ---
// ECR reports per-image failures in the response body rather than as API
// errors; both paths are folded into the gateway's DeleteError.
func (g *Gateway) DeleteTag(ctx context.Context, image string, tag string) error {
	out, err := g.client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(image),
		ImageIds:       []types.ImageIdentifier{{ImageTag: aws.String(tag)}},
	})
	if err != nil {
		var notFound *types.RepositoryNotFoundException
		if errors.As(err, &notFound) {
			return &registrygateway.DeleteError{
				Image: image, Tag: tag, Reason: "repository not found", NotFound: true,
			}
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return &registrygateway.DeleteError{
				Image: image, Tag: tag,
				Reason: fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()),
			}
		}
		return &registrygateway.DeleteError{Image: image, Tag: tag, Reason: err.Error()}
	}

	if len(out.Failures) > 0 {
		failure := out.Failures[0]
		reason := fmt.Sprintf("%s: %s", string(failure.FailureCode), aws.ToString(failure.FailureReason))
		return &registrygateway.DeleteError{
			Image: image, Tag: tag, Reason: reason,
			NotFound: failure.FailureCode == types.ImageFailureCodeImageNotFound,
		}
	}

	g.logger.Info().Str("image", image).Str("tag", tag).Msg("deleted tag")
	return nil
}

func (g *Gateway) Close() {}
