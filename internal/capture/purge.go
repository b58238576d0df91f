package capture

import (
	"log"
	"sync"
)

// purgeState records whether the artifact directory has been cleared in this
// process. It starts false and is only ever set.
var purgeState struct {
	sync.Mutex
	done bool
}

// PurgeOnce clears the files in dir the first time it is called in a process.
// Later calls do nothing and report purged=false.
func PurgeOnce(dir Dir) (purged bool, removed int, err error) {
	purgeState.Lock()
	defer purgeState.Unlock()

	if purgeState.done {
		return false, 0, nil
	}
	removed, err = dir.PurgeFiles()
	if err != nil {
		return false, removed, err
	}
	purgeState.done = true
	log.Printf("capture: purged %d files from %s", removed, dir.Path)
	return true, removed, nil
}

// ResetPurgeStateForTest forgets an earlier purge. Only tests call it.
func ResetPurgeStateForTest() {
	purgeState.Lock()
	purgeState.done = false
	purgeState.Unlock()
}
