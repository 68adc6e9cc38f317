package version_test

import (
	"testing"

	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/descriptor"
	"github.com/clyde-pm/clyde/pkg/version"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVersionSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "pkg/version suite")
}

var _ = Describe("Resolve", func() {
	var d *descriptor.Descriptor

	BeforeEach(func() {
		host := archos.ArchOs{Arch: archos.ArchX86_64, OS: archos.OSLinux}
		asset := descriptor.Asset{URL: "https://example.com/x", Sha256: "deadbeef"}
		d = &descriptor.Descriptor{
			Name: "widget",
			Releases: map[string]map[archos.ArchOs]descriptor.Asset{
				"1.0.0": {host: asset},
				"1.2.0": {host: asset},
				"2.0.0": {host: asset},
			},
		}
	})

	It("picks the greatest version satisfying an unconstrained requirement", func() {
		v, ok := version.Resolve(d, "*")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("2.0.0"))
	})

	It("picks the greatest version within a caret range", func() {
		v, ok := version.Resolve(d, "^1.0.0")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("1.2.0"))
	})

	It("reports no match when nothing satisfies the requirement", func() {
		_, ok := version.Resolve(d, "^9.0.0")
		Expect(ok).To(BeFalse())
	})

	It("matches an exact version pin", func() {
		v, ok := version.Resolve(d, "=1.0.0")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("1.0.0"))
	})
})

var _ = Describe("Satisfies", func() {
	It("reports whether a concrete version satisfies a requirement", func() {
		ok, err := version.Satisfies("1.5.0", "^1.0.0")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = version.Satisfies("2.0.0", "^1.0.0")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
