package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager is a Source backed by AWS Secrets Manager.
type SecretsManager struct {
	client *secretsmanager.Client
}

// NewSecretsManager builds a Source using the ambient AWS credential
// chain. Region may be empty to use the environment default.
func NewSecretsManager(ctx context.Context, region string) (*SecretsManager, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SecretsManager{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

// Fetch implements Source. The id is the secret ARN.
func (s *SecretsManager) Fetch(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", id)
	}
	return []byte(*out.SecretString), nil
}
