// Package e2e drives real coordinator and storage-node services over
// real HTTP (via httptest) and a real client, covering the scenarios a
// unit test below any one package's boundary can't reach.
package e2e_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEndToEnd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Threshold File Storage End-to-End Suite")
}
