package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/volunteer-connect/backend/internal/signups"
)

func TestReportDrift(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	assert.NoError(t, reportDrift(cmd, nil))
	assert.Contains(t, buf.String(), "consistent")

	buf.Reset()
	err := reportDrift(cmd, []signups.CountDrift{{EventID: 9, Title: "Beach Cleanup", Recorded: 3, Actual: 2, MaxVolunteers: 5}})
	assert.ErrorIs(t, err, errDrift)
	assert.Contains(t, buf.String(), "#9 Beach Cleanup")
	assert.Contains(t, buf.String(), "counter 3 does not match 2 signups")
}
