// Package integration contains end-to-end integration tests for ReliefWatch.
// These tests verify the complete flow from webhook receipt to crisis
// creation and notification dispatch.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReliefWatch Integration Suite")
}
