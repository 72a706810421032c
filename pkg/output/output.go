package output

import "github.com/ericogr/ads1263-thermometry/pkg/sampler"

type Output interface {
	Publish(sampler.Cycle) error
	Close() error
}

// helper constructors are in subpackages
