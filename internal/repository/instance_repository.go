package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cloudlab/internal/model"
)

// InstanceCatalog looks up instance pricing rows of one cloud provider.
// vCPU and memory are text columns and are compared as text.
type InstanceCatalog interface {
	// Match returns every instance type with the given vCPU and memory.
	Match(ctx context.Context, vcpu, memory string) ([]model.InstanceType, error)
	// Find returns the named instance type. Newlines in the stored name are
	// ignored.
	Find(ctx context.Context, name, vcpu, memory string) (model.InstanceType, error)
}

// InstanceRepo selects the catalogue of a provider.
type InstanceRepo struct {
	catalogs map[model.Provider]InstanceCatalog
}

// NewInstanceRepo registers the AWS and Azure catalogues over db.
func NewInstanceRepo(db *sql.DB) *InstanceRepo {
	return &InstanceRepo{catalogs: map[model.Provider]InstanceCatalog{
		model.ProviderAWS:   ec2Catalog{db: db},
		model.ProviderAzure: azureCatalog{db: db},
	}}
}

// For returns the catalogue of p or ErrUnsupportedProvider.
func (r *InstanceRepo) For(p model.Provider) (InstanceCatalog, error) {
	c, ok := r.catalogs[p]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return c, nil
}

type ec2Catalog struct{ db *sql.DB }

const ec2Columns = "instancename, vcpu, memory, storage, networkperformance, linux_price, windows_price"

func scanEC2(s rowScanner) (model.InstanceType, error) {
	var it model.InstanceType
	err := s.Scan(&it.Name, &it.VCPU, &it.Memory, &it.Storage, &it.NetworkPerformance, &it.LinuxPrice, &it.WindowsPrice)
	return it, err
}

func (c ec2Catalog) Match(ctx context.Context, vcpu, memory string) ([]model.InstanceType, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+ec2Columns+" FROM ec2_instance WHERE vcpu = $1 AND memory = $2", vcpu, memory)
	if err != nil {
		return nil, err
	}
	return collectInstances(rows, scanEC2)
}

func (c ec2Catalog) Find(ctx context.Context, name, vcpu, memory string) (model.InstanceType, error) {
	it, err := scanEC2(c.db.QueryRowContext(ctx,
		`SELECT `+ec2Columns+` FROM ec2_instance
		  WHERE REPLACE(instancename, E'\n', '') = $1 AND vcpu = $2 AND memory = $3
		  LIMIT 1`, name, vcpu, memory))
	if errors.Is(err, sql.ErrNoRows) {
		return model.InstanceType{}, ErrNotFound
	}
	return it, err
}

type azureCatalog struct{ db *sql.DB }

const azureColumns = "instance, vcpu, memory, storage, linux_price, windows_price"

func scanAzure(s rowScanner) (model.InstanceType, error) {
	var it model.InstanceType
	err := s.Scan(&it.Name, &it.VCPU, &it.Memory, &it.Storage, &it.LinuxPrice, &it.WindowsPrice)
	return it, err
}

func (c azureCatalog) Match(ctx context.Context, vcpu, memory string) ([]model.InstanceType, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+azureColumns+" FROM azure_vm WHERE vcpu = $1 AND memory = $2", vcpu, memory)
	if err != nil {
		return nil, err
	}
	return collectInstances(rows, scanAzure)
}

func (c azureCatalog) Find(ctx context.Context, name, vcpu, memory string) (model.InstanceType, error) {
	it, err := scanAzure(c.db.QueryRowContext(ctx,
		`SELECT `+azureColumns+` FROM azure_vm
		  WHERE REPLACE(instance, E'\n', '') = $1 AND vcpu = $2 AND memory = $3
		  LIMIT 1`, name, vcpu, memory))
	if errors.Is(err, sql.ErrNoRows) {
		return model.InstanceType{}, ErrNotFound
	}
	return it, err
}

func collectInstances(rows *sql.Rows, scan func(rowScanner) (model.InstanceType, error)) ([]model.InstanceType, error) {
	defer rows.Close()
	out := []model.InstanceType{}
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
