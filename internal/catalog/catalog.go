// Package catalog loads the EC2 and Azure instance pricing tables from a
// YAML file. The server only reads these tables; cmd/seed fills them.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
)

// EC2Instance is a row of ec2_instance.
type EC2Instance struct {
	ID                 int    `gorm:"column:id;primaryKey" yaml:"-"`
	InstanceName       string `gorm:"column:instancename" yaml:"instance"`
	VCPU               string `gorm:"column:vcpu" yaml:"vcpu"`
	Memory             string `gorm:"column:memory" yaml:"memory"`
	Storage            string `gorm:"column:storage" yaml:"storage"`
	NetworkPerformance string `gorm:"column:networkperformance" yaml:"network_performance"`
	LinuxPrice         string `gorm:"column:linux_price" yaml:"linux_price"`
	WindowsPrice       string `gorm:"column:windows_price" yaml:"windows_price"`
}

func (EC2Instance) TableName() string { return "ec2_instance" }

// AzureVM is a row of azure_vm.
type AzureVM struct {
	ID           int    `gorm:"column:id;primaryKey" yaml:"-"`
	Instance     string `gorm:"column:instance" yaml:"instance"`
	VCPU         string `gorm:"column:vcpu" yaml:"vcpu"`
	Memory       string `gorm:"column:memory" yaml:"memory"`
	Storage      string `gorm:"column:storage" yaml:"storage"`
	LinuxPrice   string `gorm:"column:linux_price" yaml:"linux_price"`
	WindowsPrice string `gorm:"column:windows_price" yaml:"windows_price"`
}

func (AzureVM) TableName() string { return "azure_vm" }

// File is the layout of the seed file.
type File struct {
	EC2   []EC2Instance `yaml:"ec2"`
	Azure []AzureVM     `yaml:"azure"`
}

// Parse decodes and validates a seed file.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i, r := range f.EC2 {
		if strings.TrimSpace(r.InstanceName) == "" || r.VCPU == "" || r.Memory == "" {
			return File{}, fmt.Errorf("ec2[%d]: instance, vcpu and memory are required", i)
		}
	}
	for i, r := range f.Azure {
		if strings.TrimSpace(r.Instance) == "" || r.VCPU == "" || r.Memory == "" {
			return File{}, fmt.Errorf("azure[%d]: instance, vcpu and memory are required", i)
		}
	}
	return f, nil
}

// Load reads and parses path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data)
}

// Replace swaps the contents of both pricing tables for f in one
// transaction. A provider with no rows in f is left untouched.
func Replace(db *gorm.DB, f File) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if len(f.EC2) > 0 {
			if err := tx.Where("1 = 1").Delete(&EC2Instance{}).Error; err != nil {
				return fmt.Errorf("clear ec2_instance: %w", err)
			}
			if err := tx.CreateInBatches(f.EC2, 100).Error; err != nil {
				return fmt.Errorf("insert ec2_instance: %w", err)
			}
		}
		if len(f.Azure) > 0 {
			if err := tx.Where("1 = 1").Delete(&AzureVM{}).Error; err != nil {
				return fmt.Errorf("clear azure_vm: %w", err)
			}
			if err := tx.CreateInBatches(f.Azure, 100).Error; err != nil {
				return fmt.Errorf("insert azure_vm: %w", err)
			}
		}
		return nil
	})
}
