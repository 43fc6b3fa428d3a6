package memory

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("mergeBounded", func() {
	It("adds new keys while under the cap", func() {
		out := mergeBounded(map[string]string{"a": "1"}, map[string]string{"b": "2"}, 10, 100)
		Expect(out).To(Equal(map[string]string{"a": "1", "b": "2"}))
	})

	It("does not mutate the existing map", func() {
		existing := map[string]string{"a": "1"}
		mergeBounded(existing, map[string]string{"b": "2"}, 10, 100)
		Expect(existing).To(Equal(map[string]string{"a": "1"}))
	})

	It("refuses new keys once the cap is reached", func() {
		existing := map[string]string{"a": "1", "b": "2"}
		out := mergeBounded(existing, map[string]string{"c": "3"}, 2, 100)
		Expect(out).To(Equal(existing))
	})

	It("always updates keys that are already present, even at the cap", func() {
		existing := map[string]string{"a": "1", "b": "2"}
		out := mergeBounded(existing, map[string]string{"a": "updated"}, 2, 100)
		Expect(out["a"]).To(Equal("updated"))
		Expect(out).To(HaveLen(2))
	})

	It("admits new keys in sorted order when only some fit", func() {
		existing := map[string]string{"a": "1"}
		updates := map[string]string{"z": "last", "b": "first"}
		out := mergeBounded(existing, updates, 2, 100)
		Expect(out).To(HaveKey("b"))
		Expect(out).NotTo(HaveKey("z"))
	})

	It("hard-truncates values to the length cap", func() {
		out := mergeBounded(nil, map[string]string{"k": strings.Repeat("x", 50)}, 10, 8)
		Expect(out["k"]).To(Equal(strings.Repeat("x", 8)))
	})

	It("truncates updated values for existing keys too", func() {
		existing := map[string]string{"k": "short"}
		out := mergeBounded(existing, map[string]string{"k": strings.Repeat("y", 50)}, 1, 8)
		Expect(out["k"]).To(Equal(strings.Repeat("y", 8)))
	})

	It("returns a copy when there is nothing to merge", func() {
		existing := map[string]string{"a": "1"}
		out := mergeBounded(existing, nil, 10, 100)
		Expect(out).To(Equal(existing))
		out["b"] = "2"
		Expect(existing).NotTo(HaveKey("b"))
	})
})

var _ = Describe("mergeOverlay", func() {
	It("keeps global entries absent from local", func() {
		out := mergeOverlay(map[string]string{"city": "Delhi"}, map[string]string{})
		Expect(out).To(Equal(map[string]string{"city": "Delhi"}))
	})

	It("lets local values win on collision", func() {
		out := mergeOverlay(
			map[string]string{"city": "Delhi", "name": "Aman"},
			map[string]string{"city": "Mumbai"},
		)
		Expect(out).To(Equal(map[string]string{"city": "Mumbai", "name": "Aman"}))
	})

	It("does not mutate either input", func() {
		global := map[string]string{"a": "g"}
		local := map[string]string{"a": "l"}
		mergeOverlay(global, local)
		Expect(global["a"]).To(Equal("g"))
		Expect(local["a"]).To(Equal("l"))
	})
})
