package memory

import (
	"sort"

	"github.com/Aman3189/soriva-backend-sub004/pkg/utils"
)

// mergeBounded merges updates into existing under the map caps: values
// are hard-truncated to maxValueLen, keys already present are always
// updatable, and new keys are admitted first-come-first-served only while
// the map holds fewer than maxKeys entries. Nothing is ever evicted.
// Updates apply in sorted key order so admission is deterministic.
func mergeBounded(existing, updates map[string]string, maxKeys, maxValueLen int) map[string]string {
	out := cloneMap(existing)
	if len(updates) == 0 {
		return out
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := utils.Truncate(updates[k], maxValueLen)
		if _, present := out[k]; present {
			out[k] = v
			continue
		}
		if len(out) >= maxKeys {
			continue
		}
		out[k] = v
	}
	return out
}

// mergeOverlay overlays local on top of global: every global entry is
// kept unless the conversation has its own value for the key.
func mergeOverlay(global, local map[string]string) map[string]string {
	out := cloneMap(global)
	for k, v := range local {
		out[k] = v
	}
	return out
}
