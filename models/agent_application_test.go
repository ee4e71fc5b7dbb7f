package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusHelpers(t *testing.T) {
	app := AgentApplication{Status: ApplicationStatusPending}
	assert.True(t, app.IsPending())
	assert.False(t, app.IsApproved())
	assert.False(t, app.IsRejected())

	app.Status = ApplicationStatusApproved
	assert.True(t, app.IsApproved())

	app.Status = ApplicationStatusRejected
	assert.True(t, app.IsRejected())
}
