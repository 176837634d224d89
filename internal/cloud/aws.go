package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/iliyamo/cloudlab/internal/config"
	"github.com/iliyamo/cloudlab/internal/logger"
)

// DefaultInstanceType is used when a lab does not name one.
const DefaultInstanceType = "t3.micro"

// ErrNoImage is returned when no AMI is configured for the lab's OS.
var ErrNoImage = errors.New("no machine image configured for lab os")

// EC2API is the subset of the EC2 client the launcher calls.
type EC2API interface {
	RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	StartInstances(ctx context.Context, in *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, in *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// AWSLauncher runs lab sessions on EC2.
type AWSLauncher struct {
	EC2        EC2API
	AMILinux   string
	AMIWindows string
	SubnetID   string
}

// NewAWSLauncher loads the default AWS credential chain for the configured
// region.
func NewAWSLauncher(ctx context.Context, cfg config.AWSConfig) (*AWSLauncher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWSLauncher{
		EC2:        ec2.NewFromConfig(awsCfg),
		AMILinux:   cfg.AMILinux,
		AMIWindows: cfg.AMIWindows,
		SubnetID:   cfg.SubnetID,
	}, nil
}

func (l *AWSLauncher) imageFor(os string) string {
	if strings.Contains(strings.ToLower(os), "windows") {
		return l.AMIWindows
	}
	return l.AMILinux
}

func (l *AWSLauncher) Launch(ctx context.Context, spec InstanceSpec) (string, error) {
	image := l.imageFor(spec.OS)
	if image == "" {
		return "", ErrNoImage
	}
	instanceType := strings.TrimSpace(spec.InstanceType)
	if instanceType == "" {
		instanceType = DefaultInstanceType
	}

	in := &ec2.RunInstancesInput{
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		ImageId:      aws.String(image),
		InstanceType: ec2types.InstanceType(instanceType),
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags: []ec2types.Tag{
				{Key: aws.String("Name"), Value: aws.String("lab-" + spec.AssignmentID)},
				{Key: aws.String("lab-title"), Value: aws.String(spec.LabTitle)},
				{Key: aws.String("assignment-id"), Value: aws.String(spec.AssignmentID)},
			},
		}},
	}
	in.InstanceInitiatedShutdownBehavior = ec2types.ShutdownBehaviorStop
	if l.SubnetID != "" {
		in.SubnetId = aws.String(l.SubnetID)
	}

	out, err := l.EC2.RunInstances(ctx, in)
	if err != nil {
		return "", fmt.Errorf("run instance: %w", err)
	}
	if len(out.Instances) == 0 || out.Instances[0].InstanceId == nil {
		return "", errors.New("run instance: no instance returned")
	}
	id := aws.ToString(out.Instances[0].InstanceId)
	logger.Infof("Created instance %s (%s) for assignment %s", id, instanceType, spec.AssignmentID)
	return id, nil
}

func (l *AWSLauncher) Start(ctx context.Context, instanceID string) error {
	if _, err := l.EC2.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{instanceID}}); err != nil {
		return fmt.Errorf("start instance %s: %w", instanceID, err)
	}
	return nil
}

func (l *AWSLauncher) Stop(ctx context.Context, instanceID string) error {
	if _, err := l.EC2.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{instanceID}}); err != nil {
		return fmt.Errorf("stop instance %s: %w", instanceID, err)
	}
	return nil
}

func (l *AWSLauncher) Terminate(ctx context.Context, instanceID string) error {
	if _, err := l.EC2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{instanceID}}); err != nil {
		return fmt.Errorf("terminate instance %s: %w", instanceID, err)
	}
	logger.Infof("Terminated instance %s", instanceID)
	return nil
}
