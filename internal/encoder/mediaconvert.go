// Package encoder submits transcode jobs to AWS Elemental MediaConvert.
// Encoding runs asynchronously on the AWS side; we only wait for the job to
// be accepted.
package encoder

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"

	conf "github.com/WebRendHQ/MaclellanFamily.com/internal/config"
)

type MediaConvert struct {
	client *mediaconvert.Client
}

func New(ctx context.Context, cfg *conf.MediaConvertConfig) (*MediaConvert, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := mediaconvert.NewFromConfig(awsCfg, func(o *mediaconvert.Options) {
		// MediaConvert uses per-account endpoints.
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &MediaConvert{client: client}, nil
}

func (m *MediaConvert) Submit(ctx context.Context, job *mediaconvert.CreateJobInput) error {
	out, err := m.client.CreateJob(ctx, job)
	if err != nil {
		return fmt.Errorf("create mediaconvert job: %w", err)
	}
	if out.Job != nil && out.Job.Id != nil {
		log.Printf("[encoder] submitted job %s", *out.Job.Id)
	}
	return nil
}
