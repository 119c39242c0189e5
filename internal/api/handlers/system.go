package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is usable.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type SystemHandler struct {
	checks []Check
}

func NewSystemHandler(checks ...Check) *SystemHandler {
	return &SystemHandler{checks: checks}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz runs every dependency check in parallel. A failing check does not
// cut the others short.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	errs := make([]error, len(h.checks))
	var wg sync.WaitGroup
	for i, check := range h.checks {
		i, check := i, check
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = check.Fn(ctx)
		}()
	}
	wg.Wait()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for i, check := range h.checks {
		if errs[i] != nil {
			results[check.Name] = errs[i].Error()
			healthy = false
			continue
		}
		results[check.Name] = "ok"
	}

	status, label := http.StatusOK, "ready"
	if !healthy {
		status, label = http.StatusServiceUnavailable, "not ready"
	}

	c.JSON(status, gin.H{"status": label, "checks": results})
}
