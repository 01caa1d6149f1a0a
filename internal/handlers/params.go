package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doannc02/exam-process-service/internal/models"
)

const monthLayout = "2006-01"

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

func queryString(c *gin.Context, name string) *string {
	if value := c.Query(name); value != "" {
		return &value
	}
	return nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return fallback
}

func queryIntPtr(c *gin.Context, name string) *int {
	if raw := c.Query(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return &value
		}
	}
	return nil
}

func queryUintPtr(c *gin.Context, name string) *uint {
	if raw := c.Query(name); raw != "" {
		if value, err := strconv.ParseUint(raw, 10, 32); err == nil {
			v := uint(value)
			return &v
		}
	}
	return nil
}

func queryBoolPtr(c *gin.Context, name string) *bool {
	if raw := c.Query(name); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			return &value
		}
	}
	return nil
}

func queryStatus(c *gin.Context, name string) (*models.ProposalStatus, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	status := models.ProposalStatus(raw)
	if !models.ValidProposalStatus(status) {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &status, nil
}

// queryMonth parses a "2006-01" month filter.
func queryMonth(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(monthLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q, expected %s", name, raw, monthLayout)
	}
	return &t, nil
}
