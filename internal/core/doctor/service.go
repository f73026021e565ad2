package doctor

import (
	"context"
	"time"
)

// HealthChecker pings the analysis service.
type HealthChecker interface {
	BaseURL() string
	Health(ctx context.Context) error
}

// ServiceCheck verifies that the analysis service answers its health
// endpoint.
type ServiceCheck struct {
	api     HealthChecker
	timeout time.Duration
}

// NewServiceCheck creates a new service check bounded by timeout.
func NewServiceCheck(api HealthChecker, timeout time.Duration) *ServiceCheck {
	return &ServiceCheck{api: api, timeout: timeout}
}

func (c *ServiceCheck) Name() string {
	return "Service"
}

func (c *ServiceCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := c.api.Health(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.api.BaseURL(),
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.api.BaseURL(),
		Status: StatusPass,
		Detail: "healthy in " + time.Since(start).Round(time.Millisecond).String(),
	})
	return result
}
