package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-cmp/cmp"

	"github.com/iliyamo/cloudlab/internal/model"
)

type fakeEC2 struct {
	run        *ec2.RunInstancesInput
	started    []string
	stopped    []string
	terminated []string
	err        error
}

func (f *fakeEC2) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.run = in
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.RunInstancesOutput{Instances: []ec2types.Instance{{InstanceId: aws.String("i-0123")}}}, nil
}

func (f *fakeEC2) StartInstances(_ context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.started = append(f.started, in.InstanceIds...)
	return &ec2.StartInstancesOutput{}, f.err
}

func (f *fakeEC2) StopInstances(_ context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.stopped = append(f.stopped, in.InstanceIds...)
	return &ec2.StopInstancesOutput{}, f.err
}

func (f *fakeEC2) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.terminated = append(f.terminated, in.InstanceIds...)
	return &ec2.TerminateInstancesOutput{}, f.err
}

func TestAWSLaunchPicksImageByOS(t *testing.T) {
	api := &fakeEC2{}
	l := &AWSLauncher{EC2: api, AMILinux: "ami-linux", AMIWindows: "ami-win", SubnetID: "subnet-1"}

	id, err := l.Launch(context.Background(), InstanceSpec{AssignmentID: "as-1", LabTitle: "AD lab", OS: "Windows Server 2022", InstanceType: "m5.large"})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if id != "i-0123" {
		t.Fatalf("id = %s", id)
	}
	if got := aws.ToString(api.run.ImageId); got != "ami-win" {
		t.Errorf("image = %s, want ami-win", got)
	}
	if api.run.InstanceType != ec2types.InstanceType("m5.large") {
		t.Errorf("instance type = %s", api.run.InstanceType)
	}
	if aws.ToString(api.run.SubnetId) != "subnet-1" {
		t.Errorf("subnet = %v", api.run.SubnetId)
	}

	if _, err := l.Launch(context.Background(), InstanceSpec{AssignmentID: "as-2", OS: "ubuntu"}); err != nil {
		t.Fatalf("Launch linux: %v", err)
	}
	if got := aws.ToString(api.run.ImageId); got != "ami-linux" {
		t.Errorf("image = %s, want ami-linux", got)
	}
	if api.run.InstanceType != ec2types.InstanceType(DefaultInstanceType) {
		t.Errorf("instance type = %s, want default", api.run.InstanceType)
	}
}

func TestAWSLaunchWithoutImage(t *testing.T) {
	l := &AWSLauncher{EC2: &fakeEC2{}}
	if _, err := l.Launch(context.Background(), InstanceSpec{OS: "ubuntu"}); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestAWSStartStop(t *testing.T) {
	api := &fakeEC2{}
	l := &AWSLauncher{EC2: api}
	if err := l.Start(context.Background(), "i-1"); err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(context.Background(), "i-1"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"i-1"}, api.stopped); diff != "" || len(api.started) != 1 {
		t.Fatalf("calls: started=%v stopped=%v", api.started, api.stopped)
	}

	api.err = errors.New("boom")
	if err := l.Stop(context.Background(), "i-2"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAWSTerminate(t *testing.T) {
	api := &fakeEC2{}
	l := &AWSLauncher{EC2: api}
	if err := l.Terminate(context.Background(), "i-9"); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if diff := cmp.Diff([]string{"i-9"}, api.terminated); diff != "" {
		t.Fatalf("terminated (-want +got):\n%s", diff)
	}
	api.err = errors.New("boom")
	if err := l.Terminate(context.Background(), "i-10"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegistryFor(t *testing.T) {
	al := &AWSLauncher{}
	r := Registry{model.ProviderAWS: al}
	if l, err := r.For("AWS"); err != nil || l != al {
		t.Fatalf("For(AWS) = %v, %v", l, err)
	}
	for _, p := range []string{"azure", "gcp", ""} {
		if _, err := r.For(p); !errors.Is(err, ErrUnsupported) {
			t.Errorf("For(%q) err = %v", p, err)
		}
	}
}
