package physics_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPhysicsProperties(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Physics Properties Suite")
}
