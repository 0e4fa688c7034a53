// Command sqs2s3 runs a transfer as an AWS Lambda function, or once from the
// command line when started outside the Lambda runtime.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.opentelemetry.io/otel"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/timebudget"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	timeout := flag.Duration("timeout", 5*time.Minute, "time budget of a command line run")
	flag.Parse()

	level := new(slog.LevelVar)
	if config.DebugEnabled(config.FromEnv) {
		level.Set(slog.LevelDebug)
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading aws configuration: %w", err)
	}

	h := &handler{log: log, awsCfg: awsCfg}

	if _, ok := os.LookupEnv("AWS_LAMBDA_RUNTIME_API"); ok {
		lambda.Start(h.invoke)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	res, err := h.invoke(ctx, nil)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(res)
}

type handler struct {
	log    *slog.Logger
	awsCfg aws.Config
}

// invoke runs one transfer. The configuration is loaded per invocation because
// the stop threshold may be a share of the invocation's remaining time.
func (h *handler) invoke(ctx context.Context, _ json.RawMessage) (sqs2s3.Result, error) {
	deadline, ok := timebudget.FromContext(ctx)
	if !ok {
		return sqs2s3.Result{}, fmt.Errorf("invocation has no deadline")
	}

	cfg, err := config.Load(config.FromEnv, deadline.Remaining, h.log)
	if err != nil {
		return sqs2s3.Result{}, err
	}

	t, err := sqs2s3.New(ctx, cfg,
		sqs2s3.WithLogger(h.log),
		sqs2s3.WithAWSConfig(h.awsCfg),
		sqs2s3.WithMeter(otel.Meter("github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3")),
	)
	if err != nil {
		return sqs2s3.Result{}, err
	}
	return t.Run(ctx, deadline)
}
