package mavftp

import (
	"fmt"

	"github.com/wander-ops/mavftpd/mavftp/fsops"
)

// packDirListing packs entries (already sorted by the FS layer) into buf
// starting at the offset'th entry, following spec.md §4.6's pagination
// rule: an entry is only counted against the skip counter once we know it
// could have fit in a reply buffer at all. A name long enough to never
// fit in DataSize bytes is skipped over without being counted, so it can
// never wedge pagination by permanently occupying the "current" slot.
//
// Each record is "F<name>\t<size>\0" for a file or "D<name>\0" for a
// directory, mirroring gen_dir_entry in the original implementation.
func packDirListing(entries []fsops.DirEntry, offset uint32, buf []byte) (n int, eof bool) {
	skip := offset
	i := 0

	for ; i < len(entries); i++ {
		rec := formatDirEntry(entries[i])
		if len(rec) > len(buf) {
			// Never fits in any reply; do not let it consume a skip slot.
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		break
	}

	if i >= len(entries) {
		return 0, true
	}

	for ; i < len(entries); i++ {
		rec := formatDirEntry(entries[i])
		if len(rec) > len(buf) {
			continue
		}
		if len(rec) > len(buf)-n {
			break
		}
		copy(buf[n:], rec)
		n += len(rec)
	}
	return n, false
}

func formatDirEntry(e fsops.DirEntry) []byte {
	var s string
	if e.IsDir {
		s = fmt.Sprintf("D%s", e.Name)
	} else {
		s = fmt.Sprintf("F%s\t%d", e.Name, e.Size)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = 0
	return b
}
