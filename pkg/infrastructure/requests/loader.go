package requests

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// File is a batch of production requests read from YAML (or JSON, which YAML
// accepts):
//
//	requests:
//	  - product: concha-vainilla
//	    quantity: 50
type File struct {
	Requests []entities.ProductionRequest `yaml:"requests"`
}

// LoadFile reads a request batch from disk
func LoadFile(filename string) ([]entities.ProductionRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file %s: %w", filename, err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads a request batch. Every request must name a product and carry a
// non-negative quantity.
func Decode(r io.Reader) ([]entities.ProductionRequest, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []entities.ProductionRequest{}, nil
		}
		return nil, fmt.Errorf("%w: malformed request file: %v", entities.ErrInvalidInput, err)
	}

	requests := make([]entities.ProductionRequest, 0, len(file.Requests))
	for i, req := range file.Requests {
		validated, err := entities.NewProductionRequest(req.ProductID, req.Quantity)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i+1, err)
		}
		requests = append(requests, *validated)
	}
	return requests, nil
}

// ParseArgs reads requests given as product=quantity pairs
func ParseArgs(args []string) ([]entities.ProductionRequest, error) {
	requests := make([]entities.ProductionRequest, 0, len(args))
	for _, arg := range args {
		product, quantity, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected product=quantity, got %q", entities.ErrInvalidInput, arg)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(quantity), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid quantity in %q", entities.ErrInvalidInput, arg)
		}
		validated, err := entities.NewProductionRequest(entities.ProductID(strings.TrimSpace(product)), n)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *validated)
	}
	return requests, nil
}
