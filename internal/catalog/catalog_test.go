package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	data := []byte(`
ec2:
  - instance: "t3.micro"
    vcpu: "2"
    memory: "1"
    storage: EBS only
    network_performance: Up to 5 Gigabit
    linux_price: "0.0104"
    windows_price: "0.0196"
azure:
  - instance: B1s
    vcpu: "1"
    memory: "1"
    storage: "4"
    linux_price: "0.0104"
    windows_price: "0.0146"
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := File{
		EC2: []EC2Instance{{
			InstanceName: "t3.micro", VCPU: "2", Memory: "1", Storage: "EBS only",
			NetworkPerformance: "Up to 5 Gigabit", LinuxPrice: "0.0104", WindowsPrice: "0.0196",
		}},
		Azure: []AzureVM{{
			Instance: "B1s", VCPU: "1", Memory: "1", Storage: "4", LinuxPrice: "0.0104", WindowsPrice: "0.0146",
		}},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsIncompleteRows(t *testing.T) {
	for _, data := range []string{
		"ec2:\n  - instance: t3.micro\n    memory: \"1\"\n",
		"azure:\n  - vcpu: \"1\"\n    memory: \"1\"\n",
		"ec2: [",
	} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("Parse(%q) succeeded", data)
		}
	}
}
