package model

import (
	"errors"
	"strings"
)

// Provider identifies a cloud whose instance catalogue the API can query.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
)

// ErrUnknownProvider is returned by ParseProvider for any other cloud.
var ErrUnknownProvider = errors.New("unsupported cloud provider")

// ParseProvider maps a request value onto a Provider. Matching is case
// insensitive and ignores surrounding whitespace.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderAWS:
		return ProviderAWS, nil
	case ProviderAzure:
		return ProviderAzure, nil
	}
	return "", ErrUnknownProvider
}

// InstanceType is one pricing row from ec2_instance or azure_vm.
// NetworkPerformance is only recorded for EC2.
type InstanceType struct {
	Name               string  `json:"instance"`
	VCPU               string  `json:"vcpu"`
	Memory             string  `json:"memory"`
	Storage            *string `json:"storage"`
	NetworkPerformance *string `json:"networkperformance,omitempty"`
	LinuxPrice         *string `json:"linux_price"`
	WindowsPrice       *string `json:"windows_price"`
}
