package index

import (
	"sync/atomic"

	commonerrors "github.com/cogpy/chainlex/pkg/common/errors"
)

// Holder publishes a built index to concurrent readers. Builds go into a
// fresh Index and are installed with a single pointer swap, so a reader
// never observes a partially built structure and a failed build leaves the
// previous index in place.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns an empty holder; Get fails with ErrIndexNotReady until
// the first successful Install.
func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the currently installed index.
func (h *Holder) Get() (*Index, error) {
	ix := h.current.Load()
	if ix == nil {
		return nil, commonerrors.ErrIndexNotReady
	}
	return ix, nil
}

// Install atomically replaces the published index.
func (h *Holder) Install(ix *Index) {
	h.current.Store(ix)
}

// Ready reports whether an index has been installed.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}
