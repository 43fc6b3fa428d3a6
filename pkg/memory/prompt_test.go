package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildPromptContext", func() {
	It("returns empty for a nil context", func() {
		Expect(BuildPromptContext(nil)).To(Equal(""))
	})

	It("returns empty when every section is empty", func() {
		c := &CombinedContext{SystemMemory: NewSystemMemory()}
		Expect(BuildPromptContext(c)).To(Equal(""))
	})

	It("renders facts with sorted keys", func() {
		c := &CombinedContext{SystemMemory: NewSystemMemory()}
		c.SystemMemory.Facts = map[string]string{"name": "Aman", "city": "Mumbai"}

		Expect(BuildPromptContext(c)).To(Equal("[KNOWN FACTS]\n- city: Mumbai\n- name: Aman"))
	})

	It("omits empty sections entirely", func() {
		c := &CombinedContext{SystemMemory: NewSystemMemory(), RollingSummary: "earlier talk"}

		out := BuildPromptContext(c)
		Expect(out).To(Equal("[CONVERSATION HISTORY]\nearlier talk"))
		Expect(out).NotTo(ContainSubstring("[KNOWN FACTS]"))
		Expect(out).NotTo(ContainSubstring("[USER PREFERENCES]"))
	})

	It("orders sections facts, preferences, history", func() {
		c := &CombinedContext{SystemMemory: NewSystemMemory(), RollingSummary: "earlier talk"}
		c.SystemMemory.Facts = map[string]string{"name": "Aman"}
		c.SystemMemory.Preferences = map[string]string{"tone": "casual"}

		Expect(BuildPromptContext(c)).To(Equal(
			"[KNOWN FACTS]\n- name: Aman" +
				"\n\n[USER PREFERENCES]\n- tone: casual" +
				"\n\n[CONVERSATION HISTORY]\nearlier talk",
		))
	})

	It("never includes recent raw messages", func() {
		c := &CombinedContext{
			SystemMemory:   NewSystemMemory(),
			RecentMessages: []RawMessage{{Role: RoleUser, Content: "raw turn"}},
		}
		Expect(BuildPromptContext(c)).NotTo(ContainSubstring("raw turn"))
	})
})
