package audit

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/viant/signoff/model"
	"golang.org/x/crypto/blake2b"
)

// ErrBrokenChain is returned by Verify when a trail was altered.
var ErrBrokenChain = errors.New("audit chain broken")

// Seal links ev to the previous entry and computes its hash.
func Seal(prevHash string, ev *model.AuditEvent) {
	ev.PrevHash = prevHash
	ev.Hash = digest(ev)
}

// Verify checks every entry hash and its link to the predecessor.
func Verify(trail []model.AuditEvent) error {
	prev := ""
	for i := range trail {
		ev := &trail[i]
		if ev.PrevHash != prev {
			return fmt.Errorf("%w: entry %d (%s) links to %q, expected %q", ErrBrokenChain, i, ev.ID, ev.PrevHash, prev)
		}
		if expected := digest(ev); ev.Hash != expected {
			return fmt.Errorf("%w: entry %d (%s) hash mismatch", ErrBrokenChain, i, ev.ID)
		}
		prev = ev.Hash
	}
	return nil
}

func digest(ev *model.AuditEvent) string {
	h, _ := blake2b.New256(nil)
	write := func(value string) {
		h.Write([]byte(strconv.Itoa(len(value))))
		h.Write([]byte{':'})
		h.Write([]byte(value))
	}
	write(ev.PrevHash)
	write(ev.ID)
	write(ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	write(string(ev.Action))
	write(ev.Actor)
	write(ev.StepID)
	keys := make([]string, 0, len(ev.Details))
	for k := range ev.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k)
		write(ev.Details[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
