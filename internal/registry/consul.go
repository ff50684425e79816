// Package registry registers the service with Consul so other services and
// load balancers can discover it. Registration is optional: the service runs
// fine without a configured Consul agent.
package registry

import (
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	capi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Registration is a live Consul service registration.
type Registration struct {
	client    *capi.Client
	serviceID string
	logger    *zerolog.Logger
}

// Register announces the service to the Consul agent at consulAddr, with an
// HTTP health check against the service's /healthz endpoint.
func Register(logger *zerolog.Logger, consulAddr, serviceName, httpAddr, appURL string) (*Registration, error) {
	client, err := capi.NewClient(&capi.Config{Address: consulAddr})
	if err != nil {
		return nil, err
	}

	_, portStr, err := net.SplitHostPort(httpAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP address %q: %w", httpAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP port %q: %w", portStr, err)
	}

	serviceID := fmt.Sprintf("%s-%s", serviceName, uuid.NewString())

	err = client.Agent().ServiceRegister(&capi.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: port,
		Check: &capi.AgentServiceCheck{
			HTTP:                           appURL + "/healthz",
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("service_id", serviceID).Msg("registered service with consul")

	return &Registration{
		client:    client,
		serviceID: serviceID,
		logger:    logger,
	}, nil
}

// Deregister removes the service from Consul. Failures are logged only; the
// deregister-critical check cleans up eventually.
func (r *Registration) Deregister() {
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		r.logger.Error().Err(err).Str("service_id", r.serviceID).Msg("failed to deregister service")
	}
}
